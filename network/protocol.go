package network

// Message IDs for the ear-training wire protocol. 1xx are match lifecycle
// requests, 2xx are in-round inputs, 3xx are server pushes.
const (
	MsgTypeHeartbeat = 1

	MsgTypeStartMatch      = 101
	MsgTypeResumeMatch     = 102
	MsgTypeAbandonMatch    = 103
	MsgTypeDiscardSnapshot = 104

	MsgTypeSelectOption = 201
	MsgTypePauseRound   = 202
	MsgTypeUnpauseRound = 203
	MsgTypeReplayTarget = 204
	MsgTypeReplayOption = 205

	MsgTypeRoundStart     = 301
	MsgTypeSequenceStep   = 302
	MsgTypeRoundReady     = 303
	MsgTypeRoundResult    = 304
	MsgTypeMatchProgress  = 305
	MsgTypeMatchEnd       = 306
	MsgTypeSnapshotUpdate = 307

	MsgTypeError = 401
)
