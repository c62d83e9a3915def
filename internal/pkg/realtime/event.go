package realtime

import "fmt"

// Action 变更类型
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// 可订阅的表
const (
	TableDiscussions      = "discussions"
	TableReplies          = "replies"
	TableLikes            = "likes"
	TableBounties         = "bounties"
	TableChats            = "chats"
	TableChatParticipants = "chat_participants"
	TableMessages         = "messages"
)

// ValidTable 校验订阅目标
func ValidTable(table string) bool {
	switch table {
	case TableDiscussions, TableReplies, TableLikes, TableBounties,
		TableChats, TableChatParticipants, TableMessages:
		return true
	}
	return false
}

// Event 一条行级变更通知
// Filter 是行的归属键 (如 "discussion_id=<id>" / "chat_id=<id>")，
// 带过滤器的订阅只收到归属键完全相等的事件
type Event struct {
	Table  string `json:"table"`
	Action Action `json:"action"`
	RowID  string `json:"rowId"`
	Filter string `json:"filter,omitempty"`
}

// FilterKey 构造归属键
func FilterKey(column, value string) string {
	return fmt.Sprintf("%s=%s", column, value)
}

// Topic 订阅主题：表 + 可选过滤器
// Filter 为空表示订阅整张表
type Topic struct {
	Table  string
	Filter string
}

// Matches 事件是否命中该主题
func (t Topic) Matches(ev Event) bool {
	if t.Table != ev.Table {
		return false
	}
	return t.Filter == "" || t.Filter == ev.Filter
}

// Publisher 变更事件发布端
// 业务层在一次写操作成功后调用，事件最终经总线广播给所有感兴趣的订阅者
type Publisher interface {
	Publish(ev Event)
}
