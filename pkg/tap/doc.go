// Package tap manages formula repositories.
//
// A tap is a git repository holding manifests, normally under Formula/,
// named user/repo and checked out below the cache directory. Sync clones
// or pulls it; Find loads one manifest by formula name.
package tap
