package ioc

// ConController 保存服务层组件（客户端、存储），先于 Api 初始化
var ConController Container = NewMapContainer("controllerContainer")

// Api 保存注册 HTTP 路由的组件
var Api Container = NewMapContainer("apiContainer")
