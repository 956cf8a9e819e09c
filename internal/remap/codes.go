package remap

// Linux input codes the engine needs to know about. Values follow
// include/uapi/linux/input-event-codes.h.
const (
	SYN_REPORT = 0

	REL_X = 0x00
	REL_Y = 0x01

	KEY_ENTER   = 28
	KEY_LEFTALT = 56
	KEY_UP      = 103
	KEY_LEFT    = 105
	KEY_RIGHT   = 106
	KEY_DOWN    = 108
	KEY_STOPCD  = 166
	KEY_PLAYCD  = 200
	KEY_OPTION  = 0x165

	BTN_LEFT   = 0x110
	BTN_RIGHT  = 0x111
	BTN_MIDDLE = 0x112

	KEY_MAX = 0x2ff
	SW_MAX  = 0x10
)

// Event values.
const (
	ValueRelease int32 = 0
	ValuePress   int32 = 1
	ValueRepeat  int32 = 2
)

const (
	maxMoving    = 4
	maxAccel     = 24
	accelDivisor = 3
)
