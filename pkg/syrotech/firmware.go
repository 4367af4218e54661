package syrotech

import (
	"fmt"
	"strings"
	"time"
)

// Selector locates the first element whose Attr equals Value and reads its
// Target attribute.
type Selector struct {
	Attr   string
	Value  string
	Target string
}

func (s Selector) String() string {
	return fmt.Sprintf("[%s=%q]@%s", s.Attr, s.Value, s.Target)
}

// Firmware describes the paths and form fields of one router firmware.
// Porting to a firmware variant is a matter of filling in a new table.
type Firmware struct {
	Name string

	RootPath         string // session probe
	DashboardPath    string // where a successful login lands
	LoginPagePath    string // where an unauthenticated probe is redirected
	LoginSubmitPath  string
	RebootPagePath   string
	RebootSubmitPath string

	UsernameField  string
	PasswordField  string
	CaptchaField   string
	CSRFField      string
	SubmitURLField string

	Captcha Selector
	CSRF    Selector

	// RebootWindow is roughly how long the device takes to come back.
	RebootWindow time.Duration
}

// DefaultFirmware is the Syrotech GPON ONT English web UI.
var DefaultFirmware = Firmware{
	Name: "syrotech-en",

	RootPath:         "/",
	DashboardPath:    "/",
	LoginPagePath:    "/admin/login_en.asp",
	LoginSubmitPath:  "/boaform/admin/formLogin_en",
	RebootPagePath:   "/mgm_dev_reboot_en.asp",
	RebootSubmitPath: "/boaform/admin/formReboot",

	UsernameField:  "username",
	PasswordField:  "psd",
	CaptchaField:   "verification_code",
	CSRFField:      "csrftoken",
	SubmitURLField: "submit-url",

	Captcha: Selector{Attr: "id", Value: "check_code", Target: "value"},
	CSRF:    Selector{Attr: "name", Value: "csrftoken", Target: "value"},

	RebootWindow: 60 * time.Second,
}

// Validate reports every empty path, field name or selector in the table.
func (f *Firmware) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"RootPath", f.RootPath},
		{"DashboardPath", f.DashboardPath},
		{"LoginPagePath", f.LoginPagePath},
		{"LoginSubmitPath", f.LoginSubmitPath},
		{"RebootPagePath", f.RebootPagePath},
		{"RebootSubmitPath", f.RebootSubmitPath},
		{"UsernameField", f.UsernameField},
		{"PasswordField", f.PasswordField},
		{"CaptchaField", f.CaptchaField},
		{"CSRFField", f.CSRFField},
		{"SubmitURLField", f.SubmitURLField},
		{"Captcha.Attr", f.Captcha.Attr},
		{"Captcha.Value", f.Captcha.Value},
		{"Captcha.Target", f.Captcha.Target},
		{"CSRF.Attr", f.CSRF.Attr},
		{"CSRF.Value", f.CSRF.Value},
		{"CSRF.Target", f.CSRF.Target},
	}

	var missing []string
	for _, field := range fields {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("firmware %q missing %s", f.Name, strings.Join(missing, ", "))
	}
	return nil
}
