package pcf8574

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
)

type tx struct {
	Addr uint16
	W    []byte
}

type recordingBus struct {
	txs []tx
	err error
}

func (b *recordingBus) Tx(addr uint16, w, r []byte) error {
	if b.err != nil {
		return b.err
	}
	b.txs = append(b.txs, tx{Addr: addr, W: append([]byte(nil), w...)})
	return nil
}

func TestConfigureDefaultAddress(t *testing.T) {
	c := qt.New(t)
	bus := &recordingBus{}
	d := New(bus)
	d.Configure(Config{})
	c.Assert(d.Address(), qt.Equals, uint8(DefaultAddress))

	d.Configure(Config{Address: 0x3F})
	c.Assert(d.Address(), qt.Equals, uint8(0x3F))
}

func TestWrite(t *testing.T) {
	c := qt.New(t)
	bus := &recordingBus{}
	d := New(bus)
	d.Configure(Config{Address: 0x27})

	c.Assert(d.Write(0x5C), qt.IsNil)
	c.Assert(bus.txs, qt.DeepEquals, []tx{{Addr: 0x27, W: []byte{0x5C}}})
	c.Assert(d.State(), qt.Equals, uint8(0x5C))
}

func TestSend(t *testing.T) {
	c := qt.New(t)
	bus := &recordingBus{}
	d := New(bus)
	d.Configure(Config{})

	c.Assert(d.Send([]byte{0x18, 0x1C, 0x18}), qt.IsNil)
	c.Assert(bus.txs, qt.HasLen, 1)
	c.Assert(bus.txs[0].W, qt.DeepEquals, []byte{0x18, 0x1C, 0x18})
	c.Assert(d.State(), qt.Equals, uint8(0x18))

	c.Assert(d.Send(nil), qt.IsNil)
	c.Assert(bus.txs, qt.HasLen, 1)
}

func TestWriteError(t *testing.T) {
	c := qt.New(t)
	nack := errors.New("address nack")
	bus := &recordingBus{err: nack}
	d := New(bus)
	d.Configure(Config{})

	err := d.Write(0x08)
	c.Assert(err, qt.ErrorIs, nack)

	var busErr *BusError
	c.Assert(errors.As(err, &busErr), qt.IsTrue)
	c.Assert(busErr.Addr, qt.Equals, uint8(DefaultAddress))
	c.Assert(busErr.Value, qt.Equals, byte(0x08))
	c.Assert(err, qt.ErrorMatches, `pcf8574: write 0x08 to 0x27: address nack`)
	// failed write does not move the remembered state
	c.Assert(d.State(), qt.Equals, uint8(0xFF))
}
