// Package sse streams session events to HTTP clients as Server-Sent Events.
//
// The Hub is a notify.Sink. Each session event is encoded once into an SSE
// frame and routed by client ID: clients registered as "all:<id>" receive
// every event, clients registered as "<kind>:<id>" receive only events for
// that wallet kind.
//
// # Usage
//
//	c := sse.NewComponent("/api/events")
//	mgr := manager.New(adapters, manager.WithSink(c.Hub()))
//	router.GET("/api/events", func(ctx *gin.Context) {
//		sse.ServeSSE(c.Hub(), ctx.Writer, ctx.Request, sse.NewClientID(""))
//	})
package sse
