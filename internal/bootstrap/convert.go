package bootstrap

import (
	"github.com/loomtale/engine/internal/application/agent"
	"github.com/loomtale/engine/internal/domain/agentapi"
)

// toChatReply adapts the application-layer agent.ChatReply onto the
// domain-facing agentapi.ChatReply a transport actually depends on.
func toChatReply(reply *agent.ChatReply) *agentapi.ChatReply {
	out := &agentapi.ChatReply{
		SessionID: reply.SessionID,
		ReplyText: reply.Text,
		Report:    reply.ConsistencyReport,
	}
	if reply.Generated != nil {
		out.Generated = &agentapi.GeneratedChapter{
			ChapterNumber: reply.Generated.ChapterNumber,
			Content:       reply.Generated.Content,
			WordCount:     reply.Generated.WordCount,
		}
	}
	return out
}
