// Package alerts derives operational alerts from current hot-store
// state and tracks per-user dismissal and read watermarks. Computation
// is stateless; any read failure yields an empty list, never an error.
package alerts

import (
	"fmt"
	"sort"
	"time"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/logger"
	"p9e.in/tms/pkg/repository"
	"p9e.in/tms/pkg/schema"
)

const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"

	TypeDelay       = "job_delay"
	TypeMaintenance = "maintenance"
	TypeDocExpiry   = "doc_expiry"
	TypePayment     = "payment_due"
)

type Alert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	RefID     string    `json:"ref_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Service struct {
	repo *repository.Repo
}

func NewService(repo *repository.Repo) *Service {
	return &Service{repo: repo}
}

// Active computes the current alert set for the user, drops dismissed
// ids, and pins each alert's created_at to its first-observed timestamp
// so the value stays stable across fetches.
func (s *Service) Active(rc repository.Request) []Alert {
	raw := s.compute(rc)

	pref, err := s.loadPrefs(rc)
	if err != nil {
		logger.Warnf("alerts: load prefs for %s: %v", rc.UserID, err)
		return raw
	}

	out := make([]Alert, 0, len(raw))
	changed := false
	for _, a := range raw {
		if pref.dismissed[a.ID] {
			continue
		}
		if seen, ok := pref.seen[a.ID]; ok {
			a.CreatedAt = seen
		} else {
			pref.seen[a.ID] = a.CreatedAt
			changed = true
		}
		out = append(out, a)
	}
	if changed {
		if err := s.savePrefs(rc, pref); err != nil {
			logger.Warnf("alerts: save prefs for %s: %v", rc.UserID, err)
		}
	}
	return out
}

// UnreadCount is the number of active alerts first observed after the
// user's last visit to the alert page.
func (s *Service) UnreadCount(rc repository.Request) int {
	pref, err := s.loadPrefs(rc)
	if err != nil {
		return 0
	}
	n := 0
	for _, a := range s.Active(rc) {
		if pref.lastViewed.IsZero() || a.CreatedAt.After(pref.lastViewed) {
			n++
		}
	}
	return n
}

func (s *Service) compute(rc repository.Request) []Alert {
	now := rc.At()
	var out []Alert
	out = append(out, s.jobAlerts(rc, now)...)
	out = append(out, s.driverAlerts(rc, now)...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// jobAlerts covers delayed jobs plus the two payment aggregates.
func (s *Service) jobAlerts(rc repository.Request, now time.Time) []Alert {
	jobs, err := s.repo.GetData(rc, repository.Query{Table: schema.Jobs})
	if err != nil {
		logger.Warnf("alerts: read jobs: %v", err)
		return nil
	}

	var out []Alert
	var pendingPay, pendingBill float64
	var payJobs, billJobs int
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for _, j := range jobs {
		status, _ := models.CanonicalStatus(schema.Str(j, "Job_Status"))
		completed := status == models.StatusCompleted

		if completed {
			if !models.IsPaid(schema.Str(j, "Payment_Status")) {
				pendingPay += schema.Float(j, "Cost_Driver_Total")
				payJobs++
			}
			if !models.IsBilled(schema.Str(j, "Billing_Status")) {
				pendingBill += schema.Float(j, "Price_Cust_Total")
				billJobs++
			}
		}

		if completed || status == models.StatusCancelled {
			continue
		}
		plan := schema.Time(j, "Plan_Date")
		if plan.IsZero() || !plan.Before(today) {
			continue
		}
		late := int(today.Sub(plan).Hours() / 24)
		sev := SeverityMedium
		if late > 3 {
			sev = SeverityCritical
		} else if late > 1 {
			sev = SeverityHigh
		}
		jobID := schema.Str(j, "Job_ID")
		out = append(out, Alert{
			ID:        "delay_" + jobID,
			Type:      TypeDelay,
			Severity:  sev,
			Title:     "งานล่าช้า " + jobID,
			Message:   fmt.Sprintf("%s → %s เลยกำหนด %d วัน (สถานะ %s)", schema.Str(j, "Origin_Location"), schema.Str(j, "Dest_Location"), late, status),
			RefID:     jobID,
			CreatedAt: now,
		})
	}

	if payJobs > 0 {
		out = append(out, Alert{
			ID:        "payment_driver",
			Type:      TypePayment,
			Severity:  SeverityMedium,
			Title:     "ค่าเที่ยวค้างจ่าย",
			Message:   fmt.Sprintf("%d งาน รวม %.2f บาท รอจ่ายคนขับ", payJobs, pendingPay),
			CreatedAt: now,
		})
	}
	if billJobs > 0 {
		out = append(out, Alert{
			ID:        "payment_billing",
			Type:      TypePayment,
			Severity:  SeverityMedium,
			Title:     "งานรอวางบิล",
			Message:   fmt.Sprintf("%d งาน รวม %.2f บาท ยังไม่วางบิล", billJobs, pendingBill),
			CreatedAt: now,
		})
	}
	return out
}

var docFields = []struct {
	column string
	label  string
}{
	{"Insurance_Expiry", "ประกันภัย"},
	{"Tax_Expiry", "ภาษีรถ"},
	{"Act_Expiry", "พ.ร.บ."},
}

// driverAlerts covers service mileage and document expiry, keyed by the
// vehicle plate the driver runs.
func (s *Service) driverAlerts(rc repository.Request, now time.Time) []Alert {
	drivers, err := s.repo.GetData(rc, repository.Query{Table: schema.Drivers})
	if err != nil {
		logger.Warnf("alerts: read drivers: %v", err)
		return nil
	}

	var out []Alert
	for _, d := range drivers {
		plate := schema.Str(d, "Vehicle_Plate")
		if plate == "" {
			plate = schema.Str(d, "Driver_ID")
		}

		next := schema.Float(d, "Next_Service_Mileage")
		if next > 0 {
			remain := next - schema.Float(d, "Current_Mileage")
			sev := ""
			switch {
			case remain <= 0:
				sev = SeverityCritical
			case remain < 500:
				sev = SeverityHigh
			case remain < 2000:
				sev = SeverityMedium
			}
			if sev != "" {
				out = append(out, Alert{
					ID:        "maint_" + plate,
					Type:      TypeMaintenance,
					Severity:  sev,
					Title:     "ใกล้ถึงรอบซ่อมบำรุง " + plate,
					Message:   fmt.Sprintf("เหลืออีก %.0f กม. ถึงรอบเซอร์วิส", remain),
					RefID:     plate,
					CreatedAt: now,
				})
			}
		}

		for _, f := range docFields {
			exp := schema.Time(d, f.column)
			if exp.IsZero() {
				continue
			}
			days := int(exp.Sub(now).Hours() / 24)
			sev := ""
			switch {
			case days < 0:
				sev = SeverityCritical
			case days < 14:
				sev = SeverityHigh
			case days < 30:
				sev = SeverityMedium
			}
			if sev == "" {
				continue
			}
			msg := fmt.Sprintf("%sหมดอายุในอีก %d วัน", f.label, days)
			if days < 0 {
				msg = fmt.Sprintf("%sหมดอายุแล้ว %d วัน", f.label, -days)
			}
			out = append(out, Alert{
				ID:        fmt.Sprintf("doc_%s_%s", plate, f.column),
				Type:      TypeDocExpiry,
				Severity:  sev,
				Title:     "เอกสารรถ " + plate,
				Message:   msg,
				RefID:     plate,
				CreatedAt: now,
			})
		}
	}
	return out
}
