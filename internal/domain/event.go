package domain

// EventKind enumerates the closed set of inbound live-stream event kinds.
// The values double as the "type" field on the client wire.
type EventKind string

const (
	KindChat      EventKind = "chat"
	KindGift      EventKind = "gift"
	KindLike      EventKind = "like"
	KindFollow    EventKind = "follow"
	KindShare     EventKind = "share"
	KindMember    EventKind = "member"
	KindRoomUser  EventKind = "roomUser"
	KindStreamEnd EventKind = "streamEnd"
	KindError     EventKind = "error"
)

// Event is the tagged union over inbound upstream events. The set of
// implementations is closed; adapters decode into exactly these types.
type Event interface {
	Kind() EventKind
}

type ChatEvent struct {
	UniqueID          string `json:"uniqueId"`
	Nickname          string `json:"nickname"`
	Comment           string `json:"comment"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
}

type GiftEvent struct {
	UniqueID     string `json:"uniqueId"`
	Nickname     string `json:"nickname"`
	GiftID       int64  `json:"giftId"`
	GiftName     string `json:"giftName"`
	DiamondCount int    `json:"diamondCount"`
	RepeatCount  int    `json:"repeatCount"`
	RepeatEnd    bool   `json:"repeatEnd"`
}

type LikeEvent struct {
	UniqueID       string `json:"uniqueId"`
	Nickname       string `json:"nickname"`
	LikeCount      int    `json:"likeCount"`
	TotalLikeCount int64  `json:"totalLikeCount"`
}

type FollowEvent struct {
	UniqueID string `json:"uniqueId"`
	Nickname string `json:"nickname"`
}

type ShareEvent struct {
	UniqueID string `json:"uniqueId"`
	Nickname string `json:"nickname"`
}

// MemberEvent is a viewer joining the room.
type MemberEvent struct {
	UniqueID string `json:"uniqueId"`
	Nickname string `json:"nickname"`
}

// RoomUserEvent carries the current viewer count.
type RoomUserEvent struct {
	ViewerCount int `json:"viewerCount"`
}

// StreamEndEvent signals the broadcaster ended the stream. Terminal.
type StreamEndEvent struct{}

// ErrorEvent is a fatal upstream-reported error. Terminal.
type ErrorEvent struct {
	Message string `json:"message"`
}

func (ChatEvent) Kind() EventKind      { return KindChat }
func (GiftEvent) Kind() EventKind      { return KindGift }
func (LikeEvent) Kind() EventKind      { return KindLike }
func (FollowEvent) Kind() EventKind    { return KindFollow }
func (ShareEvent) Kind() EventKind     { return KindShare }
func (MemberEvent) Kind() EventKind    { return KindMember }
func (RoomUserEvent) Kind() EventKind  { return KindRoomUser }
func (StreamEndEvent) Kind() EventKind { return KindStreamEnd }
func (ErrorEvent) Kind() EventKind     { return KindError }
