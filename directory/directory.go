/*
Package directory loads the employee roster.

PURPOSE:
  The roster names every employee with their pay classification, rate
  and login passkey. It is kept in a YAML or JSON file next to the
  service config and seeded into the employee store at startup.

FORMAT (YAML):

	admin_passkey: change-me
	employees:
	  - name: Emily
	    classification: per_break
	    rate: "15.00"
	    passkey: secret

  Rates are decimal strings so they stay exact. Classification accepts
  the spellings ParseClassification does ("hourly", "break", ...).

SEE ALSO:
  - payroll/types.go: Employee
  - auth/auth.go: Consumes Passkeys
*/
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/warp/worklog/payroll"
)

// Entry is one roster line.
type Entry struct {
	Name           string `yaml:"name" json:"name"`
	Classification string `yaml:"classification" json:"classification"`
	Rate           string `yaml:"rate" json:"rate"`
	Passkey        string `yaml:"passkey,omitempty" json:"passkey,omitempty"`
}

// Roster is the parsed roster file.
type Roster struct {
	AdminPasskey string  `yaml:"admin_passkey,omitempty" json:"admin_passkey,omitempty"`
	Employees    []Entry `yaml:"employees" json:"employees"`
}

// Load reads a roster from a .yaml, .yml or .json file.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	r, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse decodes roster data. ext selects JSON for ".json", YAML otherwise.
func Parse(data []byte, ext string) (*Roster, error) {
	var r Roster
	var err error
	if strings.EqualFold(ext, ".json") {
		err = json.Unmarshal(data, &r)
	} else {
		err = yaml.Unmarshal(data, &r)
	}
	if err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks names are unique and every line has a known
// classification and a non-negative rate.
func (r *Roster) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(r.Employees))
	for i, e := range r.Employees {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			errs = append(errs, &payroll.EmployeeError{Name: fmt.Sprintf("#%d", i+1), Reason: "name is required"})
			continue
		}
		if seen[name] {
			errs = append(errs, &payroll.EmployeeError{Name: name, Reason: "listed twice"})
		}
		seen[name] = true
		if _, ok := payroll.ParseClassification(e.Classification); !ok {
			errs = append(errs, &payroll.EmployeeError{Name: name, Reason: fmt.Sprintf("unknown classification %q", e.Classification)})
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(e.Rate))
		if err != nil {
			errs = append(errs, &payroll.EmployeeError{Name: name, Reason: fmt.Sprintf("rate %q is not a number", e.Rate)})
		} else if rate.IsNegative() {
			errs = append(errs, &payroll.EmployeeError{Name: name, Reason: "rate is negative"})
		}
	}
	return errors.Join(errs...)
}

// EmployeeList converts the roster to directory employees. The roster
// must be valid.
func (r *Roster) EmployeeList(now time.Time) []payroll.Employee {
	out := make([]payroll.Employee, 0, len(r.Employees))
	for _, e := range r.Employees {
		c, _ := payroll.ParseClassification(e.Classification)
		out = append(out, payroll.Employee{
			Name:           strings.TrimSpace(e.Name),
			Classification: c,
			Rate:           payroll.MustParseDecimal(e.Rate),
			CreatedAt:      now,
		})
	}
	return out
}

// Passkeys maps employee names to passkeys, skipping lines without one.
func (r *Roster) Passkeys() map[string]string {
	keys := make(map[string]string)
	for _, e := range r.Employees {
		if e.Passkey != "" {
			keys[strings.TrimSpace(e.Name)] = e.Passkey
		}
	}
	return keys
}

// ErrNoPasskeys means the roster lets nobody sign in.
var ErrNoPasskeys = errors.New("roster has no worker or admin passkeys")

// CheckSignIn returns ErrNoPasskeys when no worker passkey and no admin
// passkey is set. A roster missing only one of them is logged.
func (r *Roster) CheckSignIn() error {
	workers := len(r.Passkeys())
	if workers == 0 && r.AdminPasskey == "" {
		return ErrNoPasskeys
	}
	if r.AdminPasskey == "" {
		log.Warn("roster has no admin passkey; admin endpoints are unreachable")
	}
	if workers == 0 {
		log.Warn("roster has no worker passkeys; only the admin can sign in")
	}
	return nil
}

// Seed saves every roster employee into the store, replacing existing
// classification and rate. Stores keep the original creation time.
func Seed(ctx context.Context, store payroll.EmployeeStore, r *Roster) (int, error) {
	for i, emp := range r.EmployeeList(time.Time{}) {
		if err := store.SaveEmployee(ctx, emp); err != nil {
			return i, fmt.Errorf("seed %s: %w", emp.Name, err)
		}
	}
	log.WithField("employees", len(r.Employees)).Info("roster seeded")
	return len(r.Employees), nil
}

// Default is the NJC roster. It carries no passkeys.
func Default() *Roster {
	return &Roster{Employees: []Entry{
		{Name: "Emily", Classification: "per_break", Rate: "15.00"},
		{Name: "Anthony", Classification: "per_break", Rate: "15.00"},
		{Name: "Greg", Classification: "hourly", Rate: "18.50"},
		{Name: "Jeff", Classification: "hourly", Rate: "25.00"},
		{Name: "Dave", Classification: "hourly", Rate: "25.00"},
		{Name: "Sean", Classification: "hourly", Rate: "22.00"},
		{Name: "Cameron", Classification: "hourly", Rate: "20.00"},
		{Name: "Joanna", Classification: "per_break", Rate: "15.00"},
		{Name: "Brandon", Classification: "hourly", Rate: "20.00"},
		{Name: "Claire", Classification: "hourly", Rate: "22.00"},
		{Name: "Aimee", Classification: "hourly", Rate: "22.00"},
		{Name: "Kylie", Classification: "hourly", Rate: "21.00"},
		{Name: "Kaley", Classification: "hourly", Rate: "20.00"},
	}}
}
