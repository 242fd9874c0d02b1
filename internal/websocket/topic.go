package websocket

import "fmt"

// Topic is an addressable broadcast scope. Every live connection is admitted
// under one topic: either a channel's chat stream or a user's private
// notification stream.
type Topic string

// UserTopic returns the topic carrying a user's notification pushes.
func UserTopic(userID uint) Topic {
	return Topic(fmt.Sprintf("user:%d", userID))
}

// ChannelTopic returns the topic carrying a channel's chat traffic.
func ChannelTopic(channelID uint) Topic {
	return Topic(fmt.Sprintf("channel:%d", channelID))
}
