package processor

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/chicken-dinner/internal/extractor"
	"github.com/mauv0809/chicken-dinner/internal/metrics"
	"github.com/mauv0809/chicken-dinner/internal/pubsub"
	"github.com/mauv0809/chicken-dinner/internal/scoring"
	"github.com/mauv0809/chicken-dinner/internal/tournament"
	"github.com/mauv0809/chicken-dinner/internal/uploads"
)

// New creates a new Processor.
func New(store Store, batches Batches, extractor extractor.Extractor, notifier Notifier, metrics metrics.Metrics, pubsub pubsub.PubSubClient) *Processor {
	return &Processor{
		store:     store,
		batches:   batches,
		extractor: extractor,
		pubsub:    pubsub,
		notifier:  notifier,
		metrics:   metrics,
	}
}

// IngestScreenshot stores a record for the screenshot and runs extraction on
// it. The record is persisted before the model is called, so an extraction
// failure flags it for review instead of losing the screenshot. Only the
// flagged or scored record comes back; the error path is reserved for
// authorization and storage problems.
func (p *Processor) IngestScreenshot(ctx context.Context, identity tournament.Identity, teamID, screenshotURL string, dryRun bool) (*tournament.MatchRecord, error) {
	if !identity.CanMutate(teamID) {
		return nil, tournament.ErrForbidden
	}
	p.metrics.IncUploadsReceived()

	rec := &tournament.MatchRecord{TeamID: teamID, ScreenshotURL: &screenshotURL}
	if err := p.store.InsertMatchRecord(rec); err != nil {
		return nil, err
	}
	log.Info("Stored screenshot record", "recordID", rec.ID, "team", teamID)

	result, err := p.extractor.ExtractMatchData(ctx, screenshotURL)
	if err != nil {
		return p.flagRecord(rec.ID, err.Error(), dryRun)
	}

	start := time.Now()
	scored, err := p.store.UpdateMatchResult(rec.ID, result.Placement, result.Kills)
	if err != nil {
		return nil, err
	}
	p.metrics.ObserveRecomputeDuration(time.Since(start).Seconds())
	p.metrics.IncRecordsScored()
	log.Info("Scored match record", "recordID", scored.ID, "placement", result.Placement, "kills", result.Kills)

	if !dryRun {
		p.pubsub.SendMessage(pubsub.EventNotifyResult, scored)
	}
	return scored, nil
}

// IngestBatch runs IngestScreenshot for every screenshot in order and tracks
// the outcomes on a batch. One bad screenshot never aborts the rest.
func (p *Processor) IngestBatch(ctx context.Context, identity tournament.Identity, teamID string, screenshotURLs []string, dryRun bool) (*uploads.Batch, error) {
	if !identity.CanMutate(teamID) {
		return nil, tournament.ErrForbidden
	}

	batch, err := p.batches.CreateBatch(teamID, screenshotURLs)
	if err != nil {
		return nil, err
	}
	log.Info("Ingesting upload batch", "batchID", batch.ID, "team", teamID, "count", len(screenshotURLs))

	for i, url := range screenshotURLs {
		rec, err := p.IngestScreenshot(ctx, identity, teamID, url, dryRun)
		if err != nil {
			log.Error("Failed to ingest batch screenshot", "error", err, "batchID", batch.ID, "index", i)
			p.recordItemOutcome(batch.ID, i, "", err.Error())
			continue
		}

		failure := ""
		if rec.Status == tournament.StatusNeedsReview && rec.ReviewReason != nil {
			failure = *rec.ReviewReason
		}
		p.recordItemOutcome(batch.ID, i, rec.ID, failure)
	}

	return p.batches.CompleteBatch(batch.ID)
}

func (p *Processor) recordItemOutcome(batchID string, index int, recordID, failure string) {
	if err := p.batches.RecordItemOutcome(batchID, index, recordID, failure); err != nil {
		log.Error("Failed to record batch item outcome", "error", err, "batchID", batchID, "index", index)
	}
}

// RecordManualResult scores a match without a screenshot, straight from the
// submitted numbers.
func (p *Processor) RecordManualResult(identity tournament.Identity, teamID string, matchNumber *int, placement, kills int, dryRun bool) (*tournament.MatchRecord, error) {
	if !identity.CanMutate(teamID) {
		return nil, tournament.ErrForbidden
	}
	if err := scoring.ValidatePlacement(placement); err != nil {
		return nil, err
	}
	if err := scoring.ValidateKills(kills); err != nil {
		return nil, err
	}

	rec := &tournament.MatchRecord{
		TeamID:      teamID,
		MatchNumber: matchNumber,
		Placement:   &placement,
		Kills:       &kills,
	}
	start := time.Now()
	if err := p.store.InsertMatchRecord(rec); err != nil {
		return nil, err
	}
	p.metrics.ObserveRecomputeDuration(time.Since(start).Seconds())
	p.metrics.IncRecordsScored()
	log.Info("Recorded manual result", "recordID", rec.ID, "team", teamID, "placement", placement, "kills", kills)

	if !dryRun {
		p.pubsub.SendMessage(pubsub.EventNotifyResult, rec)
	}
	return rec, nil
}

// CorrectRecord re-scores an existing record, typically after a review.
func (p *Processor) CorrectRecord(identity tournament.Identity, recordID string, placement, kills int, dryRun bool) (*tournament.MatchRecord, error) {
	rec, err := p.store.GetMatchRecord(recordID)
	if err != nil {
		return nil, err
	}
	if !identity.CanMutate(rec.TeamID) {
		return nil, tournament.ErrForbidden
	}
	if err := scoring.ValidatePlacement(placement); err != nil {
		return nil, err
	}
	if err := scoring.ValidateKills(kills); err != nil {
		return nil, err
	}

	start := time.Now()
	scored, err := p.store.UpdateMatchResult(recordID, placement, kills)
	if err != nil {
		return nil, err
	}
	p.metrics.ObserveRecomputeDuration(time.Since(start).Seconds())
	p.metrics.IncRecordsScored()
	log.Info("Corrected match record", "recordID", recordID, "placement", placement, "kills", kills)

	if !dryRun {
		p.pubsub.SendMessage(pubsub.EventNotifyResult, scored)
	}
	return scored, nil
}

// RemoveRecord deletes a record and reprices the team, admin only.
func (p *Processor) RemoveRecord(identity tournament.Identity, recordID string) error {
	if identity.Role != tournament.RoleAdmin {
		return tournament.ErrForbidden
	}

	start := time.Now()
	if err := p.store.DeleteMatchRecord(recordID); err != nil {
		return err
	}
	p.metrics.ObserveRecomputeDuration(time.Since(start).Seconds())
	log.Info("Removed match record", "recordID", recordID)
	return nil
}

// RecomputeTeam rebuilds a team's aggregates from its record set, admin only.
func (p *Processor) RecomputeTeam(identity tournament.Identity, teamID string) (*scoring.TeamTotals, error) {
	if identity.Role != tournament.RoleAdmin {
		return nil, tournament.ErrForbidden
	}

	start := time.Now()
	totals, err := p.store.RecomputeTeamTotals(teamID)
	if err != nil {
		return nil, err
	}
	p.metrics.ObserveRecomputeDuration(time.Since(start).Seconds())
	log.Info("Recomputed team totals", "team", teamID, "points", totals.TotalPoints)
	return totals, nil
}

// ResetTeam wipes a team's records and zeroes its aggregates, admin only.
func (p *Processor) ResetTeam(identity tournament.Identity, teamID string) error {
	if identity.Role != tournament.RoleAdmin {
		return tournament.ErrForbidden
	}

	start := time.Now()
	if err := p.store.ResetTeam(teamID); err != nil {
		return err
	}
	p.metrics.ObserveRecomputeDuration(time.Since(start).Seconds())
	log.Info("Reset team", "team", teamID)
	return nil
}

func (p *Processor) flagRecord(recordID, reason string, dryRun bool) (*tournament.MatchRecord, error) {
	flagged, err := p.store.MarkNeedsReview(recordID, reason)
	if err != nil {
		return nil, err
	}
	p.metrics.IncRecordsFlagged()
	log.Warn("Flagged record for review", "recordID", recordID, "reason", reason)

	if !dryRun {
		p.pubsub.SendMessage(pubsub.EventNotifyReview, flagged)
	}
	return flagged, nil
}

// NotifyResult fans a scored record out to Slack. It runs on the push
// delivery path, so failures are logged and the delivery is acknowledged.
func (p *Processor) NotifyResult(record *tournament.MatchRecord, dryRun bool) {
	team, err := p.store.GetTeam(record.TeamID)
	if err != nil {
		log.Error("Failed to load team for result notification", "error", err, "team", record.TeamID)
		return
	}
	if err := p.notifier.SendResultNotification(team, record, dryRun); err != nil {
		log.Error("Failed to send result notification", "error", err, "recordID", record.ID)
	}
}

// NotifyReview fans a flagged record out to Slack, same contract as NotifyResult.
func (p *Processor) NotifyReview(record *tournament.MatchRecord, dryRun bool) {
	if err := p.notifier.SendReviewAlert(record, dryRun); err != nil {
		log.Error("Failed to send review alert", "error", err, "recordID", record.ID)
	}
}
