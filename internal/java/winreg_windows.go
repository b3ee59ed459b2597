//go:build windows

package java

import (
	"strings"
	"syscall"
	"unsafe"
)

// WindowsRegistryStrategy enumerates the HKLM JavaSoft keys Oracle and
// OpenJDK-derived installers register, reading each version subkey's
// JavaHome value. No pack example wires golang.org/x/sys/windows/registry,
// so this talks to advapi32.dll directly via syscall, the same way the
// rest of this package shells out to os/exec rather than a wrapper library.
type WindowsRegistryStrategy struct{}

var (
	modAdvapi32          = syscall.NewLazyDLL("advapi32.dll")
	procRegOpenKeyExW    = modAdvapi32.NewProc("RegOpenKeyExW")
	procRegEnumKeyExW    = modAdvapi32.NewProc("RegEnumKeyExW")
	procRegQueryValueExW = modAdvapi32.NewProc("RegQueryValueExW")
	procRegCloseKey      = modAdvapi32.NewProc("RegCloseKey")
)

const (
	hkeyLocalMachine = 0x80000002
	keyRead          = 0x20019
	regSZ            = 1
)

var javaSoftKeys = []string{
	`SOFTWARE\JavaSoft\Java Runtime Environment`,
	`SOFTWARE\JavaSoft\Java Development Kit`,
	`SOFTWARE\JavaSoft\JRE`,
	`SOFTWARE\JavaSoft\JDK`,
}

func (WindowsRegistryStrategy) CandidateRoots() []string {
	var out []string
	for _, key := range javaSoftKeys {
		hkey, err := regOpenKey(hkeyLocalMachine, key)
		if err != nil {
			continue
		}
		for _, version := range regEnumSubkeys(hkey) {
			sub, err := regOpenKey(hkey, version)
			if err != nil {
				continue
			}
			if home, ok := regReadString(sub, "JavaHome"); ok && !strings.Contains(home, "(x86)") {
				out = append(out, home)
			}
			regCloseKey(sub)
		}
		regCloseKey(hkey)
	}
	return out
}

func regOpenKey(parent syscall.Handle, subkey string) (syscall.Handle, error) {
	var hkey syscall.Handle
	subkeyPtr, err := syscall.UTF16PtrFromString(subkey)
	if err != nil {
		return 0, err
	}
	ret, _, _ := procRegOpenKeyExW.Call(
		uintptr(parent),
		uintptr(unsafe.Pointer(subkeyPtr)),
		0,
		uintptr(keyRead),
		uintptr(unsafe.Pointer(&hkey)),
	)
	if ret != 0 {
		return 0, syscall.Errno(ret)
	}
	return hkey, nil
}

func regEnumSubkeys(hkey syscall.Handle) []string {
	var names []string
	for index := uint32(0); ; index++ {
		var nameBuf [256]uint16
		nameLen := uint32(len(nameBuf))
		ret, _, _ := procRegEnumKeyExW.Call(
			uintptr(hkey),
			uintptr(index),
			uintptr(unsafe.Pointer(&nameBuf[0])),
			uintptr(unsafe.Pointer(&nameLen)),
			0, 0, 0, 0,
		)
		if ret != 0 {
			break
		}
		names = append(names, syscall.UTF16ToString(nameBuf[:nameLen]))
	}
	return names
}

func regReadString(hkey syscall.Handle, name string) (string, bool) {
	namePtr, err := syscall.UTF16PtrFromString(name)
	if err != nil {
		return "", false
	}
	var valueType uint32
	var bufLen uint32
	ret, _, _ := procRegQueryValueExW.Call(
		uintptr(hkey),
		uintptr(unsafe.Pointer(namePtr)),
		0,
		uintptr(unsafe.Pointer(&valueType)),
		0,
		uintptr(unsafe.Pointer(&bufLen)),
	)
	if ret != 0 || valueType != regSZ || bufLen == 0 {
		return "", false
	}

	buf := make([]uint16, bufLen/2)
	ret, _, _ = procRegQueryValueExW.Call(
		uintptr(hkey),
		uintptr(unsafe.Pointer(namePtr)),
		0,
		uintptr(unsafe.Pointer(&valueType)),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&bufLen)),
	)
	if ret != 0 {
		return "", false
	}
	return syscall.UTF16ToString(buf), true
}

func regCloseKey(hkey syscall.Handle) {
	procRegCloseKey.Call(uintptr(hkey))
}
