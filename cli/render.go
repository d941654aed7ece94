package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/pavi2410/droidkit/discovery"
	"github.com/pavi2410/droidkit/models"
	"github.com/pavi2410/droidkit/parser"
	"github.com/pavi2410/droidkit/sysinfo"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Renderer writes results to out and status lines to errOut.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	json   bool

	mu          sync.Mutex
	spinning    bool
	spinnerDone chan struct{}
}

func NewRenderer(out, errOut io.Writer, jsonOut bool) *Renderer {
	return &Renderer{out: out, errOut: errOut, json: jsonOut}
}

func newStdRenderer(jsonOut bool) *Renderer {
	return NewRenderer(os.Stdout, os.Stderr, jsonOut)
}

// StartSpinner animates msg on errOut until StopSpinner. It is a no-op in
// JSON mode.
func (r *Renderer) StartSpinner(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.spinning || r.json {
		return
	}
	r.spinning = true
	r.spinnerDone = make(chan struct{})
	done := r.spinnerDone

	msg := fmt.Sprintf(format, args...)

	go func() {
		frame := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				r.mu.Lock()
				fmt.Fprintf(r.errOut, "\r%s %s", cyan(spinnerFrames[frame]), msg)
				r.mu.Unlock()
				frame = (frame + 1) % len(spinnerFrames)
			}
		}
	}()
}

func (r *Renderer) StopSpinner() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.spinning {
		return
	}
	close(r.spinnerDone)
	r.spinning = false
	fmt.Fprint(r.errOut, "\r\033[K")
}

func (r *Renderer) Success(format string, args ...any) {
	fmt.Fprintf(r.errOut, "%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

func (r *Renderer) Error(format string, args ...any) {
	fmt.Fprintf(r.errOut, "%s %s\n", red("✗"), fmt.Sprintf(format, args...))
}

func (r *Renderer) Warning(format string, args ...any) {
	fmt.Fprintf(r.errOut, "%s %s\n", yellow("!"), fmt.Sprintf(format, args...))
}

func (r *Renderer) Info(format string, args ...any) {
	fmt.Fprintf(r.errOut, "  %s\n", fmt.Sprintf(format, args...))
}

// JSON writes v as indented JSON to out.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Text writes raw device output to out.
func (r *Renderer) Text(s string) {
	fmt.Fprint(r.out, s)
	if s != "" && !strings.HasSuffix(s, "\n") {
		fmt.Fprintln(r.out)
	}
}

func (r *Renderer) table() *tabwriter.Writer {
	return tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
}

func (r *Renderer) Devices(devices []models.Device) {
	if len(devices) == 0 {
		r.Info("No devices attached")
		return
	}
	w := r.table()
	fmt.Fprintln(w, bold("SERIAL")+"\t"+bold("STATE")+"\t"+bold("TRANSPORT")+"\t"+bold("MODEL"))
	for _, d := range devices {
		state := dim(d.State)
		if d.Status == "online" {
			state = green(d.State)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Serial, state, d.Transport, d.Model)
	}
	w.Flush()
}

func (r *Renderer) Discovered(devices []discovery.Device) {
	if len(devices) == 0 {
		r.Info("No devices are advertising wireless debugging")
		return
	}
	w := r.table()
	fmt.Fprintln(w, bold("NAME")+"\t"+bold("SERVICE")+"\t"+bold("ADDRESS")+"\t"+bold("PORT")+"\t"+bold("STATUS"))
	for _, d := range devices {
		var flags []string
		if d.Paired {
			flags = append(flags, "paired")
		}
		if d.Connected {
			flags = append(flags, green("connected"))
		}
		port := fmt.Sprint(d.Port)
		if d.ConnectionPort != nil {
			port = fmt.Sprint(*d.ConnectionPort)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			d.Name, d.ServiceType, strings.Join(d.Addresses, ","), port, strings.Join(flags, " "))
	}
	w.Flush()
}

func (r *Renderer) Paired(devices []models.PairedDevice) {
	if len(devices) == 0 {
		r.Info("No paired devices")
		return
	}
	w := r.table()
	fmt.Fprintln(w, bold("NAME")+"\t"+bold("ADDRESS")+"\t"+bold("METHOD")+"\t"+bold("LAST CONNECTED"))
	for _, d := range devices {
		last := time.UnixMilli(d.LastConnected).Format(time.DateTime)
		fmt.Fprintf(w, "%s\t%s:%d\t%s\t%s\n", d.Name, d.IP, d.Port, d.PairingMethod, dim(last))
	}
	w.Flush()
}

func (r *Renderer) Report(report *sysinfo.DeviceReport) {
	w := r.table()
	fmt.Fprintf(w, "%s\t%s\n", dim("serial"), report.Serial)
	fmt.Fprintf(w, "%s\t%s\n", dim("model"), report.Model)
	fmt.Fprintf(w, "%s\t%s (SDK %s)\n", dim("android"), report.AndroidVersion, report.SDKVersion)
	fmt.Fprintf(w, "%s\t%s\n", dim("transport"), report.Transport)
	w.Flush()
}

func (r *Renderer) Files(entries []parser.FileEntry) {
	w := r.table()
	for _, e := range entries {
		size := "-"
		if e.Size != nil {
			size = fmt.Sprint(*e.Size)
		}
		name := e.Name
		switch e.Kind {
		case parser.KindDirectory:
			name = cyan(e.Name + "/")
		case parser.KindSymlink:
			name = e.Name + dim(" -> "+e.Target)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", dim(e.Permissions), size, name)
	}
	w.Flush()
}

// Section prints one titled sub-report as label/value rows. Missing values
// show as a dash.
func (r *Renderer) Section(title string, v any) {
	fmt.Fprintf(r.out, "%s\n", bold(title))
	w := r.table()
	writeFields(w, reflect.ValueOf(v))
	w.Flush()
}

func (r *Renderer) System(report sysinfo.SystemReport) {
	r.Section("Hardware", report.Hardware)
	fmt.Fprintln(r.out)
	r.Section("Display", report.Display)
	fmt.Fprintln(r.out)
	if report.Battery != nil {
		r.Section("Battery", *report.Battery)
	} else {
		fmt.Fprintf(r.out, "%s\n  %s\n", bold("Battery"), dim("-"))
	}
	fmt.Fprintln(r.out)
	r.Section("Build", report.Build)
	fmt.Fprintln(r.out)
	r.Section("Network", report.Network)
}

func writeFields(w io.Writer, v reflect.Value) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		label := fieldLabel(t.Field(i))
		fmt.Fprintf(w, "  %s\t%s\n", dim(label), formatValue(v.Field(i)))
	}
}

func fieldLabel(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" {
		name = f.Name
	}
	return strings.ReplaceAll(name, "_", " ")
}

func formatValue(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return dim("-")
		}
		return formatValue(v.Elem())
	case reflect.Slice:
		if v.Len() == 0 {
			return dim("-")
		}
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = formatValue(v.Index(i))
		}
		return strings.Join(parts, ", ")
	case reflect.Struct:
		if iface, ok := v.Interface().(parser.NetworkInterface); ok {
			return formatInterface(iface)
		}
		return fmt.Sprint(v.Interface())
	default:
		return fmt.Sprint(v.Interface())
	}
}

func formatInterface(iface parser.NetworkInterface) string {
	s := iface.Name
	if iface.IPAddress != nil {
		s += " " + *iface.IPAddress
	}
	return s + " [" + iface.Status + "]"
}
