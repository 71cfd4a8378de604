// Package fyp assembles the personalized "For You" feed.
//
// A request runs four stages in order:
//
//  1. Preference extraction: behavior, follows and likes are fetched
//     concurrently and folded into a content.UserPreferences snapshot.
//  2. Candidate sourcing: followed, interest, trending and discovery queries
//     run concurrently and are merged into a deduplicated pool.
//  3. Scoring: every candidate is scored with a single "now" instant and the
//     pool is sorted by descending score.
//  4. Selection: a greedy pass caps items per creator and trims to the limit.
//
// Individual data sources degrade to empty results when they fail. Any error
// or panic in the first three stages abandons personalization and serves the
// newest content instead, so callers always receive a feed.
package fyp
