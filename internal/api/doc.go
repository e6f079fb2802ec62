// Package api 暴露 REST 接口：接收入站消息并投递到队列，
// 以及按会话查询历史消息。
package api
