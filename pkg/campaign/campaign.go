package campaign

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"greetsend/pkg/contacts"
	"greetsend/pkg/errors"
	"greetsend/pkg/logger"
	"greetsend/pkg/media"
	"greetsend/pkg/pacing"
	"greetsend/pkg/report"
	"greetsend/pkg/sender"
	"greetsend/pkg/templates"
	"greetsend/pkg/ui"
)

// pausePoll is how often a paused run checks whether it may continue
const pausePoll = 250 * time.Millisecond

// ErrNoContacts is returned by Preflight when there is nothing to send.
// It ends the program cleanly rather than as a failure.
var ErrNoContacts = stderrors.New("no valid contacts found")

// Stats counts what happened during a run
type Stats struct {
	Total        int
	Sent         int
	Failed       int
	Skipped      int
	Rejected     int
	NotAttempted int
	Duration     time.Duration
}

// Failures is every contact that did not get a message because of a
// problem with it: failed sends, skipped images and rejected rows
func (s Stats) Failures() int {
	return s.Failed + s.Skipped + s.Rejected
}

// Summary converts the stats to the report counters
func (s Stats) Summary() report.Summary {
	return report.Summary{
		Total:        s.Total,
		Sent:         s.Sent,
		Failed:       s.Failed,
		Skipped:      s.Skipped,
		Rejected:     s.Rejected,
		NotAttempted: s.NotAttempted,
		Failures:     s.Failures(),
	}
}

// Runner sends one message per contact, in file order
type Runner struct {
	Sender   sender.Sender
	Library  *media.Library
	Picker   *templates.Picker
	Pacer    pacing.Pacer
	Schedule pacing.Schedule
	Reporter ui.Reporter
	// Report collects per-contact outcomes when set
	Report *report.Report
	Logger logger.Logger
	// SendTimeout bounds one Send call; zero means no bound
	SendTimeout time.Duration
}

// Preflight checks everything a run needs before the first send
func (r *Runner) Preflight(records []contacts.Record) error {
	var problems []error
	if r.Picker == nil || r.Picker.Set().Len() == 0 {
		problems = append(problems, errors.Wrap(errors.ErrorTypeInput, "no caption templates loaded", templates.ErrNoTemplates))
	}
	if r.Library == nil {
		problems = append(problems, errors.Wrap(errors.ErrorTypeInput, "image folder not set", media.ErrImageFolderMissing))
	}
	if r.Sender == nil {
		problems = append(problems, errors.New(errors.ErrorTypeInput, "no sender configured"))
	}
	if err := stderrors.Join(problems...); err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrNoContacts
	}
	return nil
}

func (r *Runner) defaults() {
	if r.Pacer == nil {
		r.Pacer = pacing.SleepPacer{}
	}
	if r.Logger == nil {
		r.Logger = logger.GetLogger()
	}
	if r.Reporter == nil {
		r.Reporter = ui.NewStatusLine(nil)
	}
}

// Run processes records in order. Rejected rows are counted as failures up
// front and never paced. Per-contact errors never stop the run; a cancelled
// ctx does, and the remaining contacts are counted as not attempted.
func (r *Runner) Run(ctx context.Context, records []contacts.Record, rejected []contacts.Rejection) Stats {
	r.defaults()
	start := time.Now()
	log := r.Logger.WithField("component", "campaign")

	stats := Stats{Total: len(records) + len(rejected)}
	for _, rej := range rejected {
		stats.Rejected++
		r.Report.Add(report.Outcome{
			Line:      rej.Line,
			Name:      rej.Raw[contacts.ColumnName],
			Phone:     rej.Raw[contacts.ColumnPhone],
			ImageFile: rej.Raw[contacts.ColumnImageFile],
			Status:    report.StatusRejected,
			Error:     strings.Join(rej.Reasons, "; "),
			ErrorType: string(errors.ErrorTypeInput),
		})
	}

	n := len(records)
	r.Reporter.RunStarted(n, len(rejected))

	for i, rec := range records {
		if ctx.Err() == nil {
			r.waitWhilePaused(ctx)
		}
		if ctx.Err() != nil {
			for _, rest := range records[i:] {
				stats.NotAttempted++
				r.Report.Add(outcome(rest, report.StatusNotAttempted, 0, nil))
			}
			log.WarnWithFields("Run interrupted", map[string]interface{}{
				"not_attempted": stats.NotAttempted,
			})
			break
		}

		last := i == n-1
		r.Reporter.ContactStarted(i+1, n, rec)

		path, err := r.Library.Resolve(rec.ImageFile)
		if err != nil {
			stats.Skipped++
			r.Reporter.ContactSkipped(rec, r.Library.Path(rec.ImageFile), err)
			logger.LogSkip(log, i+1, n, rec.Name, rec.ImageFile, err)
			r.Report.Add(outcome(rec, report.StatusSkipped, 0, err))
			r.pause(ctx, r.Schedule.AfterSkip, ui.WaitSkip)
			continue
		}

		idx, tmpl := r.Picker.Pick()
		caption := templates.Render(tmpl, rec.Name)

		r.Reporter.ContactSending(rec)
		err = r.send(ctx, sender.Message{Phone: rec.Phone, ImagePath: path, Caption: caption})
		logger.LogSend(log, i+1, n, rec.Name, rec.Phone, err)
		if err != nil {
			stats.Failed++
			r.Reporter.ContactFailed(rec, err, errors.Hint(err))
			r.Report.Add(outcome(rec, report.StatusFailed, idx+1, err))
			r.pause(ctx, r.Schedule.AfterFailure, ui.WaitFailure)
			continue
		}

		stats.Sent++
		r.Reporter.ContactSent(rec)
		r.Report.Add(outcome(rec, report.StatusSent, idx+1, nil))
		r.pause(ctx, r.Schedule.Settle, ui.WaitSettle)
		if !last {
			r.pause(ctx, r.Schedule.Between, ui.WaitBetween)
		}
	}

	stats.Duration = time.Since(start)
	r.Reporter.RunFinished(stats.Summary(), stats.Duration)
	logger.LogRunSummary(log, stats.Total, stats.Sent, stats.Failures(), stats.NotAttempted, stats.Duration)
	return stats
}

func (r *Runner) send(ctx context.Context, msg sender.Message) (err error) {
	if r.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.SendTimeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			err = errors.New(errors.ErrorTypeUnknown, fmt.Sprintf("sender panicked: %v", p))
		}
	}()
	return r.Sender.Send(ctx, msg)
}

func (r *Runner) pause(ctx context.Context, d time.Duration, reason ui.WaitReason) {
	if d <= 0 || ctx.Err() != nil {
		return
	}
	r.Reporter.Waiting(d, reason)
	_ = r.Pacer.Pause(ctx, d)
}

func (r *Runner) waitWhilePaused(ctx context.Context) {
	for r.Reporter.IsPaused() {
		if err := pacing.Wait(ctx, pausePoll); err != nil {
			return
		}
	}
}

func outcome(rec contacts.Record, status report.Status, template int, err error) report.Outcome {
	o := report.Outcome{
		Line:      rec.Line,
		Name:      rec.Name,
		Phone:     rec.Phone,
		ImageFile: rec.ImageFile,
		Status:    status,
		Template:  template,
	}
	if err != nil {
		o.Error = err.Error()
		o.ErrorType = string(errors.TypeOf(err))
		o.ErrorCode = errors.APICodeOf(err)
	}
	return o
}
