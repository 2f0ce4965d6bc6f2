package activity

// TurnBuffer 单次请求内收集机器人逻辑产生的出站活动。
// 每个请求只调用一次逻辑，不做并发保护
type TurnBuffer struct {
	activities []Activity
}

// NewTurnBuffer 创建空的缓冲区
func NewTurnBuffer() *TurnBuffer {
	return &TurnBuffer{}
}

// Append 追加出站活动
func (b *TurnBuffer) Append(acts ...Activity) {
	b.activities = append(b.activities, acts...)
}

// Activities 按追加顺序返回出站活动
func (b *TurnBuffer) Activities() []Activity {
	out := make([]Activity, len(b.activities))
	copy(out, b.activities)
	return out
}

// Len 已收集的活动数
func (b *TurnBuffer) Len() int {
	return len(b.activities)
}
