// Package media locates the per-contact images.
//
// A Library wraps the images folder. Open fails when the folder is missing,
// which stops a run before anything is sent. Resolve turns a contact's
// ImageFile into a path and refuses names that would leave the folder.
package media
