package alerts

import (
	"encoding/json"
	"errors"
	"time"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/repository"
	"p9e.in/tms/pkg/schema"
)

// prefs is the decoded User_Prefs row for one user.
type prefs struct {
	dismissed  map[string]bool
	seen       map[string]time.Time
	lastViewed time.Time
}

func (s *Service) loadPrefs(rc repository.Request) (*prefs, error) {
	p := &prefs{dismissed: map[string]bool{}, seen: map[string]time.Time{}}
	if rc.UserID == "" {
		return p, nil
	}
	row, err := s.repo.GetByPK(rc, schema.UserPrefs, rc.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return p, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []string
	if raw := schema.Str(row, "Dismissed_Alerts"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &ids); err == nil {
			for _, id := range ids {
				p.dismissed[id] = true
			}
		}
	}
	var seen map[string]string
	if raw := schema.Str(row, "Seen_Timestamps"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &seen); err == nil {
			for id, ts := range seen {
				if t, perr := time.Parse(time.RFC3339, ts); perr == nil {
					p.seen[id] = t
				}
			}
		}
	}
	p.lastViewed = schema.Time(row, "Last_Viewed")
	return p, nil
}

func (s *Service) savePrefs(rc repository.Request, p *prefs) error {
	if rc.UserID == "" {
		return nil
	}
	ids := make([]string, 0, len(p.dismissed))
	for id := range p.dismissed {
		ids = append(ids, id)
	}
	seen := make(map[string]string, len(p.seen))
	for id, t := range p.seen {
		seen[id] = t.Format(time.RFC3339)
	}
	dismissedJSON, _ := json.Marshal(ids)
	seenJSON, _ := json.Marshal(seen)

	row := schema.Row{
		"User_ID":          rc.UserID,
		"Dismissed_Alerts": string(dismissedJSON),
		"Seen_Timestamps":  string(seenJSON),
	}
	if !p.lastViewed.IsZero() {
		row["Last_Viewed"] = p.lastViewed.Format(models.StoreLayout)
	}
	return s.repo.UpsertRecord(rc, schema.UserPrefs, row)
}

// Dismiss hides one alert id for this user from every later fetch.
func (s *Service) Dismiss(rc repository.Request, alertID string) error {
	p, err := s.loadPrefs(rc)
	if err != nil {
		return err
	}
	p.dismissed[alertID] = true
	return s.savePrefs(rc, p)
}

// MarkViewed moves the user's read watermark to now; alerts first seen
// before this instant stop counting as unread.
func (s *Service) MarkViewed(rc repository.Request) error {
	p, err := s.loadPrefs(rc)
	if err != nil {
		return err
	}
	p.lastViewed = rc.At()
	return s.savePrefs(rc, p)
}
