package adapter

// State 单次回调的处理状态
type State string

const (
	StateReceived     State = "received"
	StateVerified     State = "verified"
	StateDecoded      State = "decoded"
	StateMapped       State = "mapped"
	StateLogicInvoked State = "logic_invoked"
	StateCollected    State = "collected"
	StateDelivered    State = "delivered"
	StateRejected     State = "rejected"
	// StateFailed 逻辑或投递失败，此时已经过了 LogicInvoked
	StateFailed State = "failed"
	// StateDuplicate 平台重试推送的消息，直接应答
	StateDuplicate State = "duplicate"
)
