// Package sysinfo composes a transport with the output parsers into device
// reports.
//
// DeviceReport is all-or-nothing: if any identity property cannot be read the
// whole report fails. SystemReport is best-effort: every field is optional and
// a failed command only leaves its fields empty.
package sysinfo

import (
	"errors"
	"fmt"

	"github.com/pavi2410/droidkit/adb"
)

var ErrPartialDataUnavailable = errors.New("device report incomplete")

// Identity properties.
const (
	PropSerial         = "ro.serialno"
	PropModel          = "ro.product.model"
	PropAndroidVersion = "ro.build.version.release"
	PropSDKVersion     = "ro.build.version.sdk"
)

// DeviceReport is the core identity of a device.
type DeviceReport struct {
	Transport      adb.Kind `json:"transport"`
	Serial         string   `json:"serial_no"`
	Model          string   `json:"model"`
	AndroidVersion string   `json:"android_version"`
	SDKVersion     string   `json:"sdk_version"`
}

// BuildReport fetches the four identity properties. The transport kind is
// taken from t as is.
func BuildReport(t adb.Transport) (*DeviceReport, error) {
	p := newProbe(t)
	report := &DeviceReport{Transport: t.Kind()}

	fields := []struct {
		prop string
		dst  *string
	}{
		{PropSerial, &report.Serial},
		{PropModel, &report.Model},
		{PropAndroidVersion, &report.AndroidVersion},
		{PropSDKVersion, &report.SDKVersion},
	}

	for _, f := range fields {
		v := p.prop(f.prop)
		if v == nil {
			return nil, fmt.Errorf("%w: %s", ErrPartialDataUnavailable, f.prop)
		}
		*f.dst = *v
	}
	return report, nil
}
