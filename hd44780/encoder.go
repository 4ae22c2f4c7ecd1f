package hd44780

// expanderByte places a nibble on D4..D7 with the backlight and register
// select bits. EN is always low in the result.
func (d *Device) expanderByte(nibble uint8, rs bool) byte {
	b := (nibble & 0x0F) << 4
	if d.backlight {
		b |= BacklightBit
	}
	if rs {
		b |= RegisterSelectBit
	}
	return b
}

// sendNibble latches one nibble: EN low, EN high, EN low. The controller
// samples D4..D7 on the falling edge.
func (d *Device) sendNibble(nibble uint8, rs bool) error {
	b := d.expanderByte(nibble, rs)
	for i, out := range [3]byte{b, b | EnableBit, b} {
		if i > 0 {
			d.sleep(PulseDelay)
		}
		if err := d.bus.Write(out); err != nil {
			return err
		}
	}
	return nil
}

// sendByte sends the high nibble then the low nibble.
func (d *Device) sendByte(value byte, rs bool) error {
	if err := d.sendNibble(value>>4, rs); err != nil {
		return err
	}
	return d.sendNibble(value&0x0F, rs)
}
