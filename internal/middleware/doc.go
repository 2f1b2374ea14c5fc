// Package middleware 提供了 HTTP 請求處理的中間件。
//
// 目前只有 JWT 身份驗證：API 請求走 Authorization header，
// WebSocket 握手則允許改用 query string 傳遞 token。
package middleware
