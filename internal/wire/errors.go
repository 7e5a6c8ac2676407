package wire

// ServerSenderErrorKind enumerates the protocol violations a sender
// session can commit (spec.md §6, §7 category 1).
type ServerSenderErrorKind uint32

const (
	SenderIdAlreadyUsed ServerSenderErrorKind = iota
	SenderIdNotExist
	ChannelIdAlreadyUsed
)

// ServerSenderError is the payload of SenderErrorMsg. ChannelID is only
// meaningful for ChannelIdAlreadyUsed.
type ServerSenderError struct {
	Kind      ServerSenderErrorKind
	ChannelID string
}

func (e ServerSenderError) Error() string {
	switch e.Kind {
	case SenderIdAlreadyUsed:
		return "sender id already used"
	case SenderIdNotExist:
		return "sender id does not exist"
	case ChannelIdAlreadyUsed:
		return "channel id already used: " + e.ChannelID
	default:
		return "unknown sender error"
	}
}

// ServerReceiverErrorKind enumerates the protocol violations a receiver
// session can commit.
type ServerReceiverErrorKind uint32

const (
	ReceiverIdAlreadyUsed ServerReceiverErrorKind = iota
	ReceiverIdNotExist
	ChannelIsNotExist
	ChannelIsAlreadyOccupied
)

// ServerReceiverError is the payload of ReceiverErrorMsg. ChannelID is
// only meaningful for ChannelIsNotExist / ChannelIsAlreadyOccupied.
type ServerReceiverError struct {
	Kind      ServerReceiverErrorKind
	ChannelID string
}

func (e ServerReceiverError) Error() string {
	switch e.Kind {
	case ReceiverIdAlreadyUsed:
		return "receiver id already used"
	case ReceiverIdNotExist:
		return "receiver id does not exist"
	case ChannelIsNotExist:
		return "channel does not exist: " + e.ChannelID
	case ChannelIsAlreadyOccupied:
		return "channel already occupied: " + e.ChannelID
	default:
		return "unknown receiver error"
	}
}
