package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// ASCII logo for the application
const ASCIILogo = `
    ╔══════════════════════════════════════════════════════╗
    ║   ██████╗ ██████╗ ███████╗███████╗████████╗          ║
    ║  ██╔════╝ ██╔══██╗██╔════╝██╔════╝╚══██╔══╝          ║
    ║  ██║  ███╗██████╔╝█████╗  █████╗     ██║   SEND      ║
    ║  ██║   ██║██╔══██╗██╔══╝  ██╔══╝     ██║             ║
    ║  ╚██████╔╝██║  ██║███████╗███████╗   ██║             ║
    ║   ╚═════╝ ╚═╝  ╚═╝╚══════╝╚══════╝   ╚═╝             ║
    ║        EID MUBARAK - WHATSAPP IMAGE GREETINGS        ║
    ╚══════════════════════════════════════════════════════╝
`

var (
	quiet     atomic.Bool
	noColor   atomic.Bool
	out       io.Writer = os.Stdout
	separator           = strings.Repeat("=", 40)
)

// SetQuietMode suppresses the banner and informational output
func SetQuietMode(q bool) { quiet.Store(q) }

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool { return quiet.Load() }

// SetColorEnabled turns ANSI colors on or off
func SetColorEnabled(enabled bool) { noColor.Store(!enabled) }

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if noColor.Load() {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	if IsQuietMode() {
		return
	}
	fmt.Fprint(out, Cyan(ASCIILogo))
}

// BannerInfo is what the startup banner tells the operator
type BannerInfo struct {
	ContactsFile string
	ImagesFolder string
	Backend      string
	// Browser is set when messages go through WhatsApp Web
	Browser  bool
	Delay    time.Duration
	WaitTime time.Duration
}

// PrintBanner prints the startup requirements checklist
func PrintBanner(b BannerInfo) {
	if IsQuietMode() {
		return
	}
	w := out
	fmt.Fprintln(w, Magenta("Starting Sudanese Eid Mubarak WhatsApp Sender (Image + Random Caption)..."))
	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, Yellow("!! REQUIREMENTS !!"))
	fmt.Fprintf(w, "1. Ensure '%s' exists, is UTF-8 encoded, and has columns: Name, PhoneNumber, ImageFile.\n", b.ContactsFile)
	fmt.Fprintf(w, "2. Ensure a folder named '%s' exists.\n", b.ImagesFolder)
	fmt.Fprintf(w, "3. Place the image files listed in '%s' inside the '%s' folder.\n", b.ContactsFile, b.ImagesFolder)
	if b.Browser {
		fmt.Fprintln(w, "4. Ensure you are logged into WhatsApp Web in the automated browser (scan the QR code on first use).")
		fmt.Fprintln(w, "5. Keep your phone connected to the internet.")
		fmt.Fprintln(w, "6. AVOID USING MOUSE/KEYBOARD in the browser window while the program runs.")
	} else {
		fmt.Fprintf(w, "4. Sending through the '%s' backend.\n", b.Backend)
		fmt.Fprintln(w, "5. Keep your network connection up.")
		fmt.Fprintln(w, "6. Check the recipients before starting; messages cannot be recalled.")
	}
	fmt.Fprintln(w, "7. BE RESPONSIBLE: Sending too fast/bulk can lead to WhatsApp blocking.")
	fmt.Fprintf(w, "8. Delay between messages: %s | Wait time for load: %s\n", formatSeconds(b.Delay), formatSeconds(b.WaitTime))
	fmt.Fprintln(w, separator)
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(out, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(out, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(out, Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintf(out, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(out, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(out, Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintln(out, Magenta(msg))
}

// formatSeconds renders whole-second durations the way the status lines
// do ("15s"), falling back to Duration.String for sub-second values
func formatSeconds(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
	return d.String()
}
