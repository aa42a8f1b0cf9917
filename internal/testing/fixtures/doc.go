// Package fixtures provides test data factories for repository tests.
//
// A Factory works over either backend's repositories:
//
//	f := fixtures.New(accounts, posts)
//	author := f.CreateAccount(t)
//	mod := f.CreateAccount(t, fixtures.WithRole(model.RoleModerator))
//	post := f.CreatePost(t, author, "hola")
//
// Emails and usernames get a random suffix so fixtures never collide.
package fixtures
