// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package w5500_test

import (
	"bytes"
	"errors"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/Thermoquad/hydrant/pkg/clock"
	"github.com/Thermoquad/hydrant/pkg/w5500"
	"github.com/Thermoquad/hydrant/pkg/w5500/w5500test"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// csPin counts chip-select edges
type csPin struct {
	*gpiotest.Pin
	lows  int
	highs int
}

func (p *csPin) Out(l gpio.Level) error {
	if l == gpio.Low {
		p.lows++
	} else {
		p.highs++
	}
	return p.Pin.Out(l)
}

type fixture struct {
	chip *w5500.Chip
	emu  *w5500test.Chip
	clk  *clock.Fake
	cs   *csPin
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	emu := w5500test.New()
	clk := clock.NewFake(time.Unix(0, 0))
	cs := &csPin{Pin: &gpiotest.Pin{N: "CS", Num: 8, L: gpio.High}}
	return &fixture{
		chip: w5500.New(w5500.NewBus(emu, cs, clk)),
		emu:  emu,
		clk:  clk,
		cs:   cs,
	}
}

// ============================================================
// Raw Register I/O
// ============================================================

func TestBus_ChipSelectFramesEachTransaction(t *testing.T) {
	f := newFixture(t)

	if _, err := f.chip.Version(); err != nil {
		t.Fatalf("Version() error: %v", err)
	}
	if _, err := f.chip.MAC(); err != nil {
		t.Fatalf("MAC() error: %v", err)
	}

	if f.cs.lows != 2 || f.cs.highs != 2 {
		t.Errorf("chip-select edges low=%d high=%d, want 2/2", f.cs.lows, f.cs.highs)
	}
	if f.cs.Read() != gpio.High {
		t.Error("chip-select must be released between transactions")
	}
	if f.emu.Transactions() != 2 {
		t.Errorf("Transactions() = %d, want 2", f.emu.Transactions())
	}
}

func TestBus_ReleasesChipSelectOnError(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("bus fault")
	f.emu.FailNext(boom)

	_, err := f.chip.Version()
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped bus fault, got %v", err)
	}
	if f.cs.Read() != gpio.High {
		t.Error("chip-select left asserted after failed transaction")
	}
}

func TestBus_RejectsEmptyTransfers(t *testing.T) {
	f := newFixture(t)
	bus := f.chip.Bus()
	h := w5500.NewHeader(0, w5500.NewControlByte(w5500.BlockCommon, w5500.Read, w5500.VariableLength))

	if _, err := bus.Read(h, 0); err == nil {
		t.Error("zero-length read should fail")
	}
	if err := bus.Write(h, nil); err == nil {
		t.Error("empty write should fail")
	}
	if f.emu.Transactions() != 0 {
		t.Error("rejected transfers must not reach the bus")
	}
}

func TestBus_NilChipSelect(t *testing.T) {
	emu := w5500test.New()
	chip := w5500.New(w5500.NewBus(emu, nil, clock.NewFake(time.Unix(0, 0))))
	v, err := chip.Version()
	if err != nil || v != w5500.ExpectedVersion {
		t.Errorf("Version() = 0x%02X, %v", v, err)
	}
}

// ============================================================
// Common Block
// ============================================================

func TestChip_ConfigureIdentity(t *testing.T) {
	f := newFixture(t)
	id := w5500.Identity{
		MAC:        net.HardwareAddr{0x02, 0x00, 0x00, 0xFE, 0x00, 0x01},
		IP:         netip.MustParseAddr("192.168.1.50"),
		Gateway:    netip.MustParseAddr("192.168.1.1"),
		SubnetMask: netip.MustParseAddr("255.255.255.0"),
		RetryTime:  100 * time.Millisecond,
		RetryCount: 5,
	}
	if err := f.chip.Configure(id); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}

	mac, err := f.chip.MAC()
	if err != nil || !bytes.Equal(mac, id.MAC) {
		t.Errorf("MAC() = %v, %v", mac, err)
	}
	ip, _ := f.chip.SourceIP()
	if ip != id.IP {
		t.Errorf("SourceIP() = %v", ip)
	}
	gw, _ := f.chip.Gateway()
	if gw != id.Gateway {
		t.Errorf("Gateway() = %v", gw)
	}
	mask, _ := f.chip.SubnetMask()
	if mask != id.SubnetMask {
		t.Errorf("SubnetMask() = %v", mask)
	}
	rt, _ := f.chip.RetryTime()
	if rt != 100*time.Millisecond {
		t.Errorf("RetryTime() = %v", rt)
	}
	rc, _ := f.chip.RetryCount()
	if rc != 5 {
		t.Errorf("RetryCount() = %d", rc)
	}

	// registers sit at their documented addresses
	if got := f.emu.Peek(0, 0x000F, 4); !bytes.Equal(got, []byte{192, 168, 1, 50}) {
		t.Errorf("SIPR bytes = %v", got)
	}
	if got := f.emu.Peek(0, 0x0019, 2); !bytes.Equal(got, []byte{0x03, 0xE8}) {
		t.Errorf("RTR bytes = % X", got)
	}
}

func TestChip_ConfigureRejectsBadIdentity(t *testing.T) {
	f := newFixture(t)

	err := f.chip.Configure(w5500.Identity{MAC: net.HardwareAddr{1, 2, 3}})
	if err == nil {
		t.Error("short MAC should be rejected")
	}

	err = f.chip.Configure(w5500.Identity{
		MAC: net.HardwareAddr{2, 0, 0, 0, 0, 1},
		IP:  netip.MustParseAddr("fe80::1"),
	})
	if err == nil {
		t.Error("IPv6 source address should be rejected")
	}
}

func TestChip_DefaultRetryAndPHY(t *testing.T) {
	f := newFixture(t)

	rt, err := f.chip.RetryTime()
	if err != nil || rt != 200*time.Millisecond {
		t.Errorf("RetryTime() = %v, %v; want 200ms", rt, err)
	}

	phy, err := f.chip.PHY()
	if err != nil {
		t.Fatalf("PHY() error: %v", err)
	}
	if !phy.LinkUp || !phy.Speed100M || !phy.FullDuplex {
		t.Errorf("PHY() = %+v, want link up 100M full duplex", phy)
	}

	f.emu.Poke(0, 0x002E, []byte{0x80})
	phy, _ = f.chip.PHY()
	if phy.LinkUp || phy.Speed100M || phy.FullDuplex {
		t.Errorf("PHY() = %+v, want everything down", phy)
	}
	if phy.String() != "link down, 10Mbps, half duplex" {
		t.Errorf("PHY().String() = %q", phy.String())
	}
}

func TestChip_CheckVersion(t *testing.T) {
	f := newFixture(t)
	if err := f.chip.CheckVersion(); err != nil {
		t.Errorf("CheckVersion() error: %v", err)
	}

	f.emu.Poke(0, 0x0039, []byte{0x03})
	err := f.chip.CheckVersion()
	if !errors.Is(err, w5500.ErrUnexpectedVersion) {
		t.Errorf("expected ErrUnexpectedVersion, got %v", err)
	}
}

func TestChip_ResetWaitsForChip(t *testing.T) {
	f := newFixture(t)
	if err := f.chip.Reset(); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	if f.clk.Slept() != w5500.ResetSettle {
		t.Errorf("slept %v, want %v", f.clk.Slept(), w5500.ResetSettle)
	}
	if got := f.emu.Peek(0, 0, 1)[0]; got != w5500.ModeReset {
		t.Errorf("MR = 0x%02X, want reset bit", got)
	}
}

// ============================================================
// Socket Driver
// ============================================================

func TestNewSocket_InvalidIndex(t *testing.T) {
	f := newFixture(t)
	_, err := w5500.NewSocket(f.chip, 8)
	if !errors.Is(err, w5500.ErrInvalidSocket) {
		t.Errorf("expected ErrInvalidSocket, got %v", err)
	}
}

func TestSocket_StatusWaitsSettleDelay(t *testing.T) {
	f := newFixture(t)
	sock, err := w5500.NewSocket(f.chip, 0)
	if err != nil {
		t.Fatal(err)
	}

	before := f.clk.Slept()
	st, err := sock.Status()
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if !st.Is(w5500.StatusClosed) {
		t.Errorf("fresh socket status = %v", st)
	}
	if f.clk.Slept()-before != w5500.StatusSettle {
		t.Errorf("status read slept %v, want %v", f.clk.Slept()-before, w5500.StatusSettle)
	}
}

func TestSocket_BufferAndKeepAliveRegisters(t *testing.T) {
	f := newFixture(t)
	sock, _ := w5500.NewSocket(f.chip, 5)

	if kb, _ := sock.RXBufferSize(); kb != 2 {
		t.Errorf("default rx buffer = %dKB", kb)
	}
	if err := sock.SetTXBufferSize(4); err != nil {
		t.Errorf("SetTXBufferSize(4) error: %v", err)
	}
	if kb, _ := sock.TXBufferSize(); kb != 4 {
		t.Errorf("tx buffer = %dKB, want 4", kb)
	}
	if err := sock.SetRXBufferSize(3); err == nil {
		t.Error("3KB is not a valid buffer size")
	}

	if err := sock.SetKeepAlive(15 * time.Second); err != nil {
		t.Fatalf("SetKeepAlive error: %v", err)
	}
	if d, _ := sock.KeepAlive(); d != 15*time.Second {
		t.Errorf("KeepAlive() = %v", d)
	}
	// socket 5 register block is BSB 21
	if got := f.emu.Peek(21, 0x002F, 1)[0]; got != 3 {
		t.Errorf("Sn_KPALVTR = %d, want 3", got)
	}
}

func TestTCPServer_Lifecycle(t *testing.T) {
	f := newFixture(t)

	srv, err := w5500.NewTCPServer(f.chip, 1, 3031)
	if err != nil {
		t.Fatalf("NewTCPServer error: %v", err)
	}
	// mode and port are programmed once at construction
	if got := f.emu.Peek(5, 0x0000, 1)[0]; got != byte(w5500.ProtocolTCP) {
		t.Errorf("Sn_MR = 0x%02X", got)
	}
	if got := f.emu.Peek(5, 0x0004, 2); !bytes.Equal(got, []byte{0x0B, 0xD7}) {
		t.Errorf("Sn_PORT = % X", got)
	}

	if err := srv.Open(); err != nil {
		t.Fatal(err)
	}
	if st, _ := srv.Status(); !st.Is(w5500.StatusInit) {
		t.Errorf("after OPEN status = %v", st)
	}
	if err := srv.Listen(); err != nil {
		t.Fatal(err)
	}
	if st, _ := srv.Status(); !st.Is(w5500.StatusListen) {
		t.Errorf("after LISTEN status = %v", st)
	}
	if ok, _ := srv.Accept(); ok {
		t.Error("no peer yet, Accept should be false")
	}

	if !f.emu.Connect(1, [4]byte{10, 0, 0, 9}, 50000) {
		t.Fatal("emulator refused connect")
	}
	if ok, _ := srv.Connected(); !ok {
		t.Error("Connected() should be true once established")
	}
	peer, err := srv.Socket().Peer()
	if err != nil || peer != netip.MustParseAddrPort("10.0.0.9:50000") {
		t.Errorf("Peer() = %v, %v", peer, err)
	}

	f.emu.Disconnect(1)
	if ok, _ := srv.Connected(); ok {
		t.Error("Connected() should be false after disconnect")
	}

	if err := srv.Rearm(); err != nil {
		t.Fatalf("Rearm error: %v", err)
	}
	if st, _ := srv.Status(); !st.Is(w5500.StatusListen) {
		t.Errorf("after Rearm status = %v", st)
	}

	want := []uint8{0x01, 0x02, 0x10, 0x01, 0x02}
	if got := f.emu.Commands(1); !bytes.Equal(got, want) {
		t.Errorf("commands = % X, want % X", got, want)
	}
}

func TestTCPServer_ReceiveAndSend(t *testing.T) {
	f := newFixture(t)
	srv, _ := w5500.NewTCPServer(f.chip, 4, 3034)
	if err := srv.Start(); err != nil {
		t.Fatal(err)
	}
	f.emu.Connect(4, [4]byte{10, 0, 0, 2}, 40000)

	payload := []byte("hello turret")
	f.emu.Deliver(4, payload)

	n, err := srv.Available()
	if err != nil || n != len(payload) {
		t.Fatalf("Available() = %d, %v", n, err)
	}

	// partial read leaves the rest queued
	buf := make([]byte, 5)
	n, err = srv.Receive(buf)
	if err != nil || n != 5 || string(buf) != "hello" {
		t.Fatalf("Receive() = %d %q %v", n, buf[:n], err)
	}
	rest := make([]byte, 64)
	n, _ = srv.Receive(rest)
	if string(rest[:n]) != " turret" {
		t.Errorf("second Receive() = %q", rest[:n])
	}
	n, err = srv.Receive(rest)
	if n != 0 || err != nil {
		t.Errorf("empty Receive() = %d, %v", n, err)
	}

	n, err = srv.Send([]byte("ack"))
	if err != nil || n != 3 {
		t.Fatalf("Send() = %d, %v", n, err)
	}
	if got := f.emu.Sent(4); string(got) != "ack" {
		t.Errorf("sent = %q", got)
	}
}

func TestSocket_RingBufferWraps(t *testing.T) {
	f := newFixture(t)
	srv, _ := w5500.NewTCPServer(f.chip, 0, 3030)
	srv.Start()
	f.emu.Connect(0, [4]byte{10, 0, 0, 2}, 40000)

	buf := make([]byte, 2048)
	for round := 0; round < 5; round++ {
		chunk := bytes.Repeat([]byte{byte(round + 1)}, 700)
		f.emu.Deliver(0, chunk)
		n, err := srv.Receive(buf)
		if err != nil || n != len(chunk) {
			t.Fatalf("round %d: Receive() = %d, %v", round, n, err)
		}
		if !bytes.Equal(buf[:n], chunk) {
			t.Fatalf("round %d: data corrupted across wrap", round)
		}

		out := bytes.Repeat([]byte{byte(0xA0 + round)}, 700)
		if _, err := srv.Send(out); err != nil {
			t.Fatalf("round %d: Send() error: %v", round, err)
		}
		if got := f.emu.Sent(0); !bytes.Equal(got, out) {
			t.Fatalf("round %d: sent data corrupted across wrap", round)
		}
	}
}

func TestSocket_SendRejectsOversize(t *testing.T) {
	f := newFixture(t)
	srv, _ := w5500.NewTCPServer(f.chip, 2, 3032)
	srv.Start()

	_, err := srv.Send(make([]byte, 4096))
	if !errors.Is(err, w5500.ErrTxBufferFull) {
		t.Errorf("expected ErrTxBufferFull, got %v", err)
	}
	if got := f.emu.Sent(2); len(got) != 0 {
		t.Errorf("nothing should be sent, got %d bytes", len(got))
	}
}
