package adapter

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	dispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wechat_dispatch_total",
			Help: "按最终状态统计的回调处理次数",
		},
		[]string{"state"},
	)

	dispatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wechat_dispatch_duration_seconds",
			Help:    "单次回调从接收到投递完成的耗时（秒）",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	deliveredMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wechat_delivered_messages_total",
			Help: "按消息类型统计的成功投递数",
		},
		[]string{"msg_type"},
	)

	droppedPassive = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wechat_dropped_passive_messages_total",
			Help: "被动回复模式下无法内联而丢弃的消息数",
		},
	)
)

func init() {
	prometheus.MustRegister(dispatchTotal)
	prometheus.MustRegister(dispatchDuration)
	prometheus.MustRegister(deliveredMessages)
	prometheus.MustRegister(droppedPassive)
}
