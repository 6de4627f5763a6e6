// Package campaign runs a greeting batch.
//
// A Runner walks the validated contact records once, in file order. For
// each contact it resolves the image in the images folder, picks a random
// caption template, renders it with the contact's name and hands the
// message to a sender.Sender. Per-contact problems are counted and the run
// moves on:
//
//   - an image that cannot be resolved skips the contact, followed by the
//     short skip delay
//   - a send error fails the contact, followed by the failure delay
//   - a successful send waits the settle delay and then the regular delay
//
// Only the regular delay is left out after the last contact; settle, skip
// and failure delays always apply. Cancelling the
// context stops the run between contacts; whatever is left is counted as
// not attempted.
//
// Example:
//
//	runner := &campaign.Runner{
//		Sender:   s,
//		Library:  lib,
//		Picker:   templates.NewPicker(set, nil),
//		Schedule: cfg.Pacing.Schedule(),
//	}
//	if err := runner.Preflight(result.Records); err != nil {
//		return err
//	}
//	stats := runner.Run(ctx, result.Records, result.Rejected)
package campaign
