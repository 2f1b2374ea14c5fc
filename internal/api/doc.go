// Package api 處理 HTTP 請求路由和處理。
//
// 這個包包含了所有的 HTTP 處理器（handlers），涵蓋認證、題目、
// 提交評測、排行榜與 WebSocket 升級。它負責將 HTTP 請求轉換為
// 適當的服務調用，並將結果轉換回 HTTP 響應。
package api
