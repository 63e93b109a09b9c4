// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package w5500

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"
)

// ErrUnexpectedVersion is returned by CheckVersion when VERSIONR does not
// identify a W5500
var ErrUnexpectedVersion = errors.New("unexpected chip version")

// retryTimeUnit is the RTR resolution
const retryTimeUnit = 100 * time.Microsecond

// Identity is the network identity programmed into the chip at boot
type Identity struct {
	MAC        net.HardwareAddr
	IP         netip.Addr
	Gateway    netip.Addr
	SubnetMask netip.Addr
	RetryTime  time.Duration
	RetryCount uint8
}

// PHYStatus is the decoded PHYCFGR register
type PHYStatus struct {
	Raw        uint8
	LinkUp     bool
	Speed100M  bool
	FullDuplex bool
}

// String formats the PHY status for diagnostics
func (p PHYStatus) String() string {
	link := "down"
	if p.LinkUp {
		link = "up"
	}
	speed := "10Mbps"
	if p.Speed100M {
		speed = "100Mbps"
	}
	duplex := "half"
	if p.FullDuplex {
		duplex = "full"
	}
	return fmt.Sprintf("link %s, %s, %s duplex", link, speed, duplex)
}

func decodePHY(v uint8) PHYStatus {
	return PHYStatus{
		Raw:        v,
		LinkUp:     v&phyLink != 0,
		Speed100M:  v&phySpeed100 != 0,
		FullDuplex: v&phyFullDuplex != 0,
	}
}

// Mode reads MR
func (c *Chip) Mode() (uint8, error) {
	return c.read8(BlockCommon, RegMode)
}

// SetMode writes MR
func (c *Chip) SetMode(v uint8) error {
	return c.write8(BlockCommon, RegMode, v)
}

// Reset issues a software reset and waits for the chip to come back
func (c *Chip) Reset() error {
	if err := c.SetMode(ModeReset); err != nil {
		return fmt.Errorf("software reset: %w", err)
	}
	c.settle(ResetSettle)
	return nil
}

// Gateway reads GAR
func (c *Chip) Gateway() (netip.Addr, error) {
	return c.readIPv4(RegGateway)
}

// SetGateway writes GAR
func (c *Chip) SetGateway(addr netip.Addr) error {
	return c.writeIPv4(RegGateway, addr)
}

// SubnetMask reads SUBR
func (c *Chip) SubnetMask() (netip.Addr, error) {
	return c.readIPv4(RegSubnetMask)
}

// SetSubnetMask writes SUBR
func (c *Chip) SetSubnetMask(addr netip.Addr) error {
	return c.writeIPv4(RegSubnetMask, addr)
}

// SourceIP reads SIPR
func (c *Chip) SourceIP() (netip.Addr, error) {
	return c.readIPv4(RegSourceIP)
}

// SetSourceIP writes SIPR
func (c *Chip) SetSourceIP(addr netip.Addr) error {
	return c.writeIPv4(RegSourceIP, addr)
}

// MAC reads SHAR
func (c *Chip) MAC() (net.HardwareAddr, error) {
	buf, err := c.readReg(BlockCommon, RegSourceMAC)
	if err != nil {
		return nil, err
	}
	return net.HardwareAddr(buf), nil
}

// SetMAC writes SHAR
func (c *Chip) SetMAC(mac net.HardwareAddr) error {
	if len(mac) != RegSourceMAC.Size {
		return fmt.Errorf("MAC must be %d bytes, got %d", RegSourceMAC.Size, len(mac))
	}
	return c.writeReg(BlockCommon, RegSourceMAC, mac)
}

// RetryTime reads RTR
func (c *Chip) RetryTime() (time.Duration, error) {
	v, err := c.read16(BlockCommon, RegRetryTime)
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * retryTimeUnit, nil
}

// SetRetryTime writes RTR, rounded down to 100µs units
func (c *Chip) SetRetryTime(d time.Duration) error {
	units := d / retryTimeUnit
	if units <= 0 || units > 0xFFFF {
		return fmt.Errorf("retry time %v out of range", d)
	}
	return c.write16(BlockCommon, RegRetryTime, uint16(units))
}

// RetryCount reads RCR
func (c *Chip) RetryCount() (uint8, error) {
	return c.read8(BlockCommon, RegRetryCount)
}

// SetRetryCount writes RCR
func (c *Chip) SetRetryCount(n uint8) error {
	return c.write8(BlockCommon, RegRetryCount, n)
}

// PHY reads and decodes PHYCFGR
func (c *Chip) PHY() (PHYStatus, error) {
	v, err := c.read8(BlockCommon, RegPHYConfig)
	if err != nil {
		return PHYStatus{}, err
	}
	return decodePHY(v), nil
}

// Version reads VERSIONR
func (c *Chip) Version() (uint8, error) {
	return c.read8(BlockCommon, RegVersion)
}

// CheckVersion verifies the chip answers with the W5500 version
func (c *Chip) CheckVersion() error {
	v, err := c.Version()
	if err != nil {
		return err
	}
	if v != ExpectedVersion {
		return fmt.Errorf("%w: 0x%02X (want 0x%02X)", ErrUnexpectedVersion, v, ExpectedVersion)
	}
	return nil
}

// Configure programs the network identity. Zero retry values keep the chip
// defaults.
func (c *Chip) Configure(id Identity) error {
	if err := c.SetMAC(id.MAC); err != nil {
		return fmt.Errorf("set MAC: %w", err)
	}
	if err := c.SetSourceIP(id.IP); err != nil {
		return fmt.Errorf("set source IP: %w", err)
	}
	if err := c.SetGateway(id.Gateway); err != nil {
		return fmt.Errorf("set gateway: %w", err)
	}
	if err := c.SetSubnetMask(id.SubnetMask); err != nil {
		return fmt.Errorf("set subnet mask: %w", err)
	}
	if id.RetryTime > 0 {
		if err := c.SetRetryTime(id.RetryTime); err != nil {
			return fmt.Errorf("set retry time: %w", err)
		}
	}
	if id.RetryCount > 0 {
		if err := c.SetRetryCount(id.RetryCount); err != nil {
			return fmt.Errorf("set retry count: %w", err)
		}
	}
	return nil
}

func (c *Chip) readIPv4(reg Register) (netip.Addr, error) {
	buf, err := c.readReg(BlockCommon, reg)
	if err != nil {
		return netip.Addr{}, err
	}
	return netip.AddrFrom4([4]byte(buf)), nil
}

func (c *Chip) writeIPv4(reg Register, addr netip.Addr) error {
	if !addr.Is4() {
		return fmt.Errorf("register 0x%04X needs an IPv4 address, got %v", reg.Address, addr)
	}
	a := addr.As4()
	return c.writeReg(BlockCommon, reg, a[:])
}
