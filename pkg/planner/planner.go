// Package planner proposes driver-to-job assignments for unassigned
// jobs: fairness by trailing-month earnings, one job per driver per day.
// It is a greedy daily assigner, not a route optimizer.
package planner

import (
	"fmt"
	"sort"
	"time"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/logger"
	"p9e.in/tms/pkg/repository"
	"p9e.in/tms/pkg/schema"
)

// defaultJobIncome is credited to a driver's running month total when
// the assigned job has no Cost_Driver_Total yet, so later picks in the
// same batch stay fair.
const defaultJobIncome = 500.0

// Notifier is the fire-and-forget "new job" push enqueue. The planner
// must not fail on notification failure.
type Notifier interface {
	NotifyNewJob(rc repository.Request, driverID, driverName, jobID, planDate string)
}

// Assignment is one proposed pairing.
type Assignment struct {
	JobID        string `json:"Job_ID"`
	PlanDate     string `json:"Plan_Date"`
	DriverID     string `json:"Driver_ID"`
	DriverName   string `json:"Driver_Name"`
	VehiclePlate string `json:"Vehicle_Plate"`
	Status       string `json:"Status"`
}

// Result carries the proposal plus human-readable planning logs.
type Result struct {
	Assignments []Assignment `json:"assignments"`
	Logs        []string     `json:"logs"`
}

type Service struct {
	repo     *repository.Repo
	notifier Notifier
}

func NewService(repo *repository.Repo, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// dateKey normalizes any stored Plan_Date form to YYYY-MM-DD.
func dateKey(row schema.Row, col string) string {
	if t := schema.Time(row, col); !t.IsZero() {
		return t.Format("2006-01-02")
	}
	s := schema.Str(row, col)
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}

// LoadUnassigned returns jobs with no driver that are still live.
func (s *Service) LoadUnassigned(rc repository.Request) ([]schema.Row, error) {
	jobs, err := s.repo.GetData(rc, repository.Query{Table: schema.Jobs, Bypass: true})
	if err != nil {
		return nil, err
	}
	var out []schema.Row
	for _, j := range jobs {
		if schema.Str(j, "Driver_ID") == "" && !models.IsTerminalStatus(schema.Str(j, "Job_Status")) {
			out = append(out, j)
		}
	}
	return out, nil
}

// Propose assigns drivers to the given unassigned jobs. Candidates per
// job are active drivers not already holding a non-cancelled job on the
// plan date, either persisted or earlier in this batch; the lowest
// current-month earner wins.
func (s *Service) Propose(rc repository.Request, jobs []schema.Row) (Result, error) {
	res := Result{Assignments: []Assignment{}, Logs: []string{}}

	driverRows, err := s.repo.GetData(rc, repository.Query{Table: schema.Drivers})
	if err != nil {
		return res, err
	}
	var drivers []schema.Row
	for _, d := range driverRows {
		st := schema.Str(d, "Active_Status")
		if st == "" || st == "Active" {
			drivers = append(drivers, d)
		}
	}
	if len(drivers) == 0 {
		res.Logs = append(res.Logs, "no_active_drivers")
		return res, nil
	}

	allJobs, err := s.repo.GetData(rc, repository.Query{Table: schema.Jobs, Bypass: true})
	if err != nil {
		return res, err
	}

	// trailing-month earnings per driver
	now := rc.At()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	income := map[string]float64{}
	for _, j := range allJobs {
		t := schema.Time(j, "Plan_Date")
		if t.IsZero() || t.Before(firstOfMonth) {
			continue
		}
		if id := schema.Str(j, "Driver_ID"); id != "" {
			income[id] += schema.Float(j, "Cost_Driver_Total")
		}
	}

	// persisted busy days; CANCELLED jobs do not block
	busy := map[string]bool{}
	for _, j := range allJobs {
		id := schema.Str(j, "Driver_ID")
		if id == "" {
			continue
		}
		if st, _ := models.CanonicalStatus(schema.Str(j, "Job_Status")); st == models.StatusCancelled {
			continue
		}
		busy[id+"|"+dateKey(j, "Plan_Date")] = true
	}

	ordered := make([]schema.Row, len(jobs))
	copy(ordered, jobs)
	sort.SliceStable(ordered, func(i, k int) bool {
		return dateKey(ordered[i], "Plan_Date") < dateKey(ordered[k], "Plan_Date")
	})

	for _, job := range ordered {
		jobID := schema.Str(job, "Job_ID")
		day := dateKey(job, "Plan_Date")

		var candidates []schema.Row
		for _, d := range drivers {
			if !busy[schema.Str(d, "Driver_ID")+"|"+day] {
				candidates = append(candidates, d)
			}
		}
		if len(candidates) == 0 {
			res.Logs = append(res.Logs, fmt.Sprintf("no_available_drivers: %s on %s", jobID, day))
			continue
		}
		sort.SliceStable(candidates, func(i, k int) bool {
			a := schema.Str(candidates[i], "Driver_ID")
			b := schema.Str(candidates[k], "Driver_ID")
			if income[a] != income[b] {
				return income[a] < income[b]
			}
			return a < b
		})

		pick := candidates[0]
		driverID := schema.Str(pick, "Driver_ID")
		driverName := schema.Str(pick, "Driver_Name")
		res.Assignments = append(res.Assignments, Assignment{
			JobID:        jobID,
			PlanDate:     day,
			DriverID:     driverID,
			DriverName:   driverName,
			VehiclePlate: schema.Str(pick, "Vehicle_Plate"),
			Status:       models.StatusAssigned,
		})

		earn := schema.Float(job, "Cost_Driver_Total")
		if earn <= 0 {
			earn = defaultJobIncome
		}
		income[driverID] += earn
		// a batch-local assignment blocks the day exactly like a
		// persisted one
		busy[driverID+"|"+day] = true

		if s.notifier != nil {
			func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Warnf("planner: notify panic for %s: %v", jobID, r)
					}
				}()
				s.notifier.NotifyNewJob(rc, driverID, driverName, jobID, day)
			}()
		}
	}
	return res, nil
}

// ApplyPlan persists proposed assignments onto Jobs_Main.
func (s *Service) ApplyPlan(rc repository.Request, assignments []Assignment) error {
	for _, a := range assignments {
		_, err := s.repo.UpdateFieldsBulk(rc, schema.Jobs, "Job_ID", []string{a.JobID}, schema.Row{
			"Driver_ID":     a.DriverID,
			"Driver_Name":   a.DriverName,
			"Vehicle_Plate": a.VehiclePlate,
			"Job_Status":    models.StatusAssigned,
		}, nil)
		if err != nil {
			return fmt.Errorf("apply plan %s: %w", a.JobID, err)
		}
	}
	return nil
}
