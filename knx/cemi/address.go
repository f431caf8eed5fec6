// Copyright 2017 Ole Krüger.
// Licensed under the MIT license which can be found in the LICENSE file.

package cemi

import (
	"fmt"
	"strconv"
	"strings"
)

// IndividualAddr is a 16 bit KNX physical address of the form area.line.device,
// with area in 0..15, line in 0..15 and device in 0..255.
type IndividualAddr uint16

// NewIndividualAddr3 builds an IndividualAddr from its area/line/device parts.
func NewIndividualAddr3(area, line, device uint8) (IndividualAddr, error) {
	if area > 15 {
		return 0, fmt.Errorf("area %d out of range 0..15", area)
	}
	if line > 15 {
		return 0, fmt.Errorf("line %d out of range 0..15", line)
	}

	return IndividualAddr(uint16(area)<<12 | uint16(line)<<8 | uint16(device)), nil
}

// Area returns the area part of the address (4 bits).
func (addr IndividualAddr) Area() uint8 {
	return uint8(addr>>12) & 0x0f
}

// Line returns the line part of the address (4 bits).
func (addr IndividualAddr) Line() uint8 {
	return uint8(addr>>8) & 0x0f
}

// Device returns the device part of the address (8 bits).
func (addr IndividualAddr) Device() uint8 {
	return uint8(addr)
}

// String formats the address in area.line.device form.
func (addr IndividualAddr) String() string {
	return fmt.Sprintf("%d.%d.%d", addr.Area(), addr.Line(), addr.Device())
}

// ParseIndividualAddr parses an "area.line.device" string into an IndividualAddr.
func ParseIndividualAddr(s string) (IndividualAddr, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return 0, fmt.Errorf("individual address %q: expected area.line.device", s)
	}

	nums := make([]uint64, 3)
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return 0, fmt.Errorf("individual address %q: %w", s, err)
		}
		nums[i] = n
	}

	return NewIndividualAddr3(uint8(nums[0]), uint8(nums[1]), uint8(nums[2]))
}

// GroupAddr is a 16 bit KNX logical address identifying a group of devices
// cooperating through the same datapoint. It has three equivalent textual
// forms (3-level, 2-level, free/flat) but a single canonical 16 bit form.
type GroupAddr uint16

// NewGroupAddr3 builds a GroupAddr from its 3-level main/middle/sub parts.
func NewGroupAddr3(main, middle uint8, sub uint8) (GroupAddr, error) {
	if main > 31 {
		return 0, fmt.Errorf("main group %d out of range 0..31", main)
	}
	if middle > 7 {
		return 0, fmt.Errorf("middle group %d out of range 0..7", middle)
	}

	return GroupAddr(uint16(main)<<11 | uint16(middle)<<8 | uint16(sub)), nil
}

// NewGroupAddr2 builds a GroupAddr from its 2-level main/sub parts.
func NewGroupAddr2(main uint8, sub uint16) (GroupAddr, error) {
	if main > 31 {
		return 0, fmt.Errorf("main group %d out of range 0..31", main)
	}
	if sub > 2047 {
		return 0, fmt.Errorf("sub group %d out of range 0..2047", sub)
	}

	return GroupAddr(uint16(main)<<11 | sub), nil
}

// Main3 returns the main group of the 3-level form (5 bits).
func (addr GroupAddr) Main3() uint8 {
	return uint8(addr>>11) & 0x1f
}

// Middle3 returns the middle group of the 3-level form (3 bits).
func (addr GroupAddr) Middle3() uint8 {
	return uint8(addr>>8) & 0x07
}

// Sub3 returns the sub group of the 3-level form (8 bits).
func (addr GroupAddr) Sub3() uint8 {
	return uint8(addr)
}

// Main2 returns the main group of the 2-level form (5 bits).
func (addr GroupAddr) Main2() uint8 {
	return uint8(addr>>11) & 0x1f
}

// Sub2 returns the sub group of the 2-level form (11 bits).
func (addr GroupAddr) Sub2() uint16 {
	return uint16(addr) & 0x07ff
}

// String3 formats the address in 3-level main/middle/sub form.
func (addr GroupAddr) String3() string {
	return fmt.Sprintf("%d/%d/%d", addr.Main3(), addr.Middle3(), addr.Sub3())
}

// String2 formats the address in 2-level main/sub form.
func (addr GroupAddr) String2() string {
	return fmt.Sprintf("%d/%d", addr.Main2(), addr.Sub2())
}

// StringFree formats the address as a flat decimal number.
func (addr GroupAddr) StringFree() string {
	return strconv.FormatUint(uint64(addr), 10)
}

// String formats the address in the canonical 3-level form.
func (addr GroupAddr) String() string {
	return addr.String3()
}

// ParseGroupAddr parses a group address given in any of its three textual
// forms: "a/b/c" (3-level), "a/b" (2-level) or "n" (free/flat).
func ParseGroupAddr(s string) (GroupAddr, error) {
	parts := strings.Split(s, "/")

	switch len(parts) {
	case 1:
		n, err := strconv.ParseUint(parts[0], 10, 16)
		if err != nil {
			return 0, fmt.Errorf("group address %q: %w", s, err)
		}
		return GroupAddr(n), nil

	case 2:
		main, err := strconv.ParseUint(parts[0], 10, 8)
		if err != nil {
			return 0, fmt.Errorf("group address %q: %w", s, err)
		}
		sub, err := strconv.ParseUint(parts[1], 10, 16)
		if err != nil {
			return 0, fmt.Errorf("group address %q: %w", s, err)
		}
		return NewGroupAddr2(uint8(main), uint16(sub))

	case 3:
		main, err := strconv.ParseUint(parts[0], 10, 8)
		if err != nil {
			return 0, fmt.Errorf("group address %q: %w", s, err)
		}
		middle, err := strconv.ParseUint(parts[1], 10, 8)
		if err != nil {
			return 0, fmt.Errorf("group address %q: %w", s, err)
		}
		sub, err := strconv.ParseUint(parts[2], 10, 8)
		if err != nil {
			return 0, fmt.Errorf("group address %q: %w", s, err)
		}
		return NewGroupAddr3(uint8(main), uint8(middle), uint8(sub))

	default:
		return 0, fmt.Errorf("group address %q: unrecognized form", s)
	}
}
