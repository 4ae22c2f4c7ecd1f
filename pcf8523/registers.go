package pcf8523

const (
	DefaultAddress = 0x68 // I2C address for PCF8523

	Control1          = 0x00 // Control and status register 1
	Control2          = 0x01 // Control and status register 2
	Control3          = 0x02 // Control and status register 3
	Time              = 0x03 // Time registers starting with seconds
	Offset            = 0x0E // Offset register
	ClkOutControl     = 0x0F // Timer and CLKOUT control register
	TimerBFreqControl = 0x12 // Timer B source clock frequency control
	TimerBValue       = 0x13 // Timer B value (number clock periods)
)

const (
	oscillatorStop = 0x80 // OS flag in the seconds register
	stopBit        = 0x20 // STOP in Control1
	hour12Bit      = 0x08 // 12_24 in Control1
	batteryMask    = 0xE0 // PM bits in Control3
)
