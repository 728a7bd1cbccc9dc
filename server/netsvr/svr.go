package netsvr

import (
	"net/http"

	"github.com/zintix-labs/orbrush/server/app"
)

// NetSvr 路由 + 啟停。只交給最外層組裝者；handler 與子模組只拿得到 NetRouter。
// NetSvr 同時是 app.Component，可直接交給 app.App 管理生命週期。
type NetSvr interface {
	NetRouter
	app.Component
	Address() string
}

// NetRouter 純路由行為，不含 Run/Shutdown。
// handler 皆為標準 net/http 介面，換框架只需提供新的 adapter。
type NetRouter interface {
	Use(middleware func(http.Handler) http.Handler)

	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)
	Put(path string, h http.HandlerFunc)
	Delete(path string, h http.HandlerFunc)

	Group(path string, fn func(NetRouter))
}
