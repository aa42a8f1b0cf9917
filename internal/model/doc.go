// Package model defines domain entities and data structures for campusfeed.
//
// The model package contains the struct definitions shared by every layer:
// accounts and their public projections, feed posts, chat frames, and the
// RFC 9457 problem details used for error responses.
//
// # Domain Entities
//
//   - Account: registered user with credentials, role and profile fields
//   - ProfileView: what an account sees of itself (no email)
//   - AccountListing: privileged listing row (with email)
//   - Post / FeedItem: a post and a post joined with its author
//   - ChatMessage: ephemeral chat entry
//
// # Roles
//
// Roles are ordered user < moderator < admin. Role.Rank exposes the order so
// promotions can refuse to lower a role.
package model
