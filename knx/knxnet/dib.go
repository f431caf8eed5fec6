// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import (
	"errors"
	"net"

	"github.com/knxkit/knxtunnel/knx/cemi"
	"github.com/knxkit/knxtunnel/knx/util"
)

const (
	friendlyNameMaxLen = 30
)

// DescriptionType identifies a Description Information Block. Only
// DeviceInfo and SupportedServiceFamilies are parsed here; every other
// block a server reports is skipped over using its declared length.
type DescriptionType uint8

const (
	// DescriptionTypeDeviceInfo describes Device information e.g. KNX medium.
	DescriptionTypeDeviceInfo DescriptionType = 0x01

	// DescriptionTypeSupportedServiceFamilies describes Service families supported by the device.
	DescriptionTypeSupportedServiceFamilies DescriptionType = 0x02
)

// KNXMedium describes the KNX medium type.
type KNXMedium uint8

const (
	// KNXMediumTP1 is the TP1 medium
	KNXMediumTP1 KNXMedium = 0x02
	// KNXMediumPL110 is the PL110 medium
	KNXMediumPL110 KNXMedium = 0x04
	// KNXMediumRF is the RF medium
	KNXMediumRF KNXMedium = 0x10
	// KNXMediumIP is the IP medium
	KNXMediumIP KNXMedium = 0x20
)

// ProjectInstallationIdentifier describes a KNX project installation identifier.
type ProjectInstallationIdentifier uint16

// DeviceStatus describes the device status.
type DeviceStatus uint8

// DeviceSerialNumber desribes the serial number of a device.
type DeviceSerialNumber [6]byte

// DeviceInformationBlock contains information about a device: the fields
// DescribeTunnel reports as the gateway's FriendlyName, individual address
// and KNX medium.
type DeviceInformationBlock struct {
	Type                    DescriptionType
	Medium                  KNXMedium
	Status                  DeviceStatus
	Source                  cemi.IndividualAddr
	ProjectIdentifier       ProjectInstallationIdentifier
	SerialNumber            DeviceSerialNumber
	RoutingMulticastAddress Address
	HardwareAddr            net.HardwareAddr
	FriendlyName            string
}

// Size returns the packed size.
func (DeviceInformationBlock) Size() uint {
	return 54
}

// Pack assembles the device information structure in the given buffer.
func (dib *DeviceInformationBlock) Pack(buffer []byte) {
	buf := make([]byte, friendlyNameMaxLen)
	util.PackString(buf, friendlyNameMaxLen, dib.FriendlyName)

	util.PackSome(
		buffer,
		uint8(dib.Size()), uint8(dib.Type),
		uint8(dib.Medium), uint8(dib.Status),
		uint16(dib.Source),
		uint16(dib.ProjectIdentifier),
		dib.SerialNumber[:],
		dib.RoutingMulticastAddress[:],
		[]byte(dib.HardwareAddr),
		buf,
	)
}

// Unpack parses the given data in order to initialize the structure.
func (dib *DeviceInformationBlock) Unpack(data []byte) (n uint, err error) {
	var length uint8

	dib.HardwareAddr = make([]byte, 6)
	if n, err = util.UnpackSome(
		data,
		&length, (*uint8)(&dib.Type),
		(*uint8)(&dib.Medium), (*uint8)(&dib.Status),
		(*uint16)(&dib.Source),
		(*uint16)(&dib.ProjectIdentifier),
		dib.SerialNumber[:],
		dib.RoutingMulticastAddress[:],
		[]byte(dib.HardwareAddr),
	); err != nil {
		return
	}

	nn, err := util.UnpackString(data[n:], friendlyNameMaxLen, &dib.FriendlyName)
	if err != nil {
		return n, err
	}
	n += nn

	if length != uint8(dib.Size()) {
		return n, errors.New("device info structure length is invalid")
	}

	return
}

// SupportedServicesDIB contains information about the supported services of a device.
type SupportedServicesDIB struct {
	Type     DescriptionType
	Families []ServiceFamily
}

// Size returns the packed size.
func (sdib SupportedServicesDIB) Size() uint {
	size := uint(2)
	for _, f := range sdib.Families {
		size += f.Size()
	}

	return size
}

// Pack assembles the supported services structure in the given buffer.
func (sdib *SupportedServicesDIB) Pack(buffer []byte) {
	util.PackSome(
		buffer,
		uint8(sdib.Size()), uint8(sdib.Type),
	)

	offset := uint(2)
	for _, f := range sdib.Families {
		f.Pack(buffer[offset:])
		offset += f.Size()
	}
}

// Unpack parses the given data in order to initialize the structure.
func (sdib *SupportedServicesDIB) Unpack(data []byte) (n uint, err error) {
	var length uint8
	if n, err = util.UnpackSome(
		data,
		&length, (*uint8)(&sdib.Type),
	); err != nil {
		return
	}

	for n < uint(length) {
		f := ServiceFamily{}
		nn, err := f.Unpack(data[n:])
		if err != nil {
			return n, errors.New("unable to unpack service family")
		}

		n += nn
		sdib.Families = append(sdib.Families, f)
	}

	if length != uint8(sdib.Size()) {
		return n, errors.New("invalid length for Supported Services structure")
	}

	return
}

// ServiceFamilyType describes a KNXnet service family type.
type ServiceFamilyType uint8

const (
	// ServiceFamilyTypeIPCore is the KNXnet/IP Core family type.
	ServiceFamilyTypeIPCore = 0x02
	// ServiceFamilyTypeIPDeviceManagement is the KNXnet/IP Device Management family type.
	ServiceFamilyTypeIPDeviceManagement = 0x03
	// ServiceFamilyTypeIPTunnelling is the KNXnet/IP Tunnelling family type.
	ServiceFamilyTypeIPTunnelling = 0x04
	// ServiceFamilyTypeIPRouting is the KNXnet/IP Routing family type.
	ServiceFamilyTypeIPRouting = 0x05
	// ServiceFamilyTypeIPRemoteLogging is the KNXnet/IP Remote Logging family type.
	ServiceFamilyTypeIPRemoteLogging = 0x06
	// ServiceFamilyTypeIPRemoteConfigurationAndDiagnosis is the KNXnet/IP Remote Configuration and Diagnosis family type.
	ServiceFamilyTypeIPRemoteConfigurationAndDiagnosis = 0x07
	// ServiceFamilyTypeIPObjectServer is the KNXnet/IP Object Server family type.
	ServiceFamilyTypeIPObjectServer = 0x08
	// ServiceFamilyTypeIPSecure is the KNXnet/IP Secure family type.
	ServiceFamilyTypeIPSecure = 0x09
)

// ServiceFamily describes a KNXnet service supported by a device.
type ServiceFamily struct {
	Type    ServiceFamilyType
	Version uint8
}

// Size returns the packed size.
func (ServiceFamily) Size() uint {
	return 2
}

// Pack assembles the service family structure in the given buffer.
func (f *ServiceFamily) Pack(buffer []byte) {
	util.PackSome(
		buffer,
		uint8(f.Type), f.Version,
	)
}

// Unpack parses the given data in order to initialize the structure.
func (f *ServiceFamily) Unpack(data []byte) (n uint, err error) {
	return util.UnpackSome(data, (*uint8)(&f.Type), &f.Version)
}

// DescriptionBlock is the pair of DIBs DescribeTunnel and DescribeTunnelExt
// actually consume from a Description Response or Search Response Extended:
// the device's hardware identity and the service families it supports. A
// gateway may report additional DIBs (IP config, tunnelling slots, KNX
// Secure, ...); Unpack skips them using their declared length rather than
// parsing structures nothing in this module reads.
type DescriptionBlock struct {
	DeviceHardware    DeviceInformationBlock
	SupportedServices SupportedServicesDIB
}

// Unpack parses the given service payload in order to initialize the Description Block.
// It can cope with out of sequence and unknown Device Information Blocks (DIB).
func (di *DescriptionBlock) Unpack(data []byte) (n uint, err error) {
	var length uint8
	var ty DescriptionType

	n = 0
	for n < uint(len(data)) {
		// DIBs should always have a length and a type.
		_, err := util.UnpackSome(data[n:], &length, (*uint8)(&ty))
		if err != nil {
			return 0, err
		}

		switch ty {
		case DescriptionTypeDeviceInfo:
			_, err = di.DeviceHardware.Unpack(data[n : n+uint(length)])
			if err != nil {
				return 0, err
			}

		case DescriptionTypeSupportedServiceFamilies:
			_, err = di.SupportedServices.Unpack(data[n : n+uint(length)])
			if err != nil {
				return 0, err
			}
		}

		n += uint(length)
	}

	return n, err
}
