// Package service implements the business rules of the campus feed.
//
// Services own validation, call into authz for every permission decision
// and talk to storage through the small repository interfaces declared
// next to them, so tests can substitute in-memory fakes.
//
// # Services
//
//   - AuthService registers accounts on the institutional domain and
//     authenticates them with bcrypt.
//   - ProfileService reads and partially updates the caller's own profile,
//     including avatar and banner uploads.
//   - AdminService lists accounts and raises roles.
//   - FeedService creates, lists and deletes posts.
//   - ChatBroadcaster keeps the recent chat history and fans messages out.
//
// # Error Handling
//
// Methods return the sentinels in errors.go, authz.ErrForbidden or
// storage.ErrStorage. Anything else is an infrastructure failure:
//
//	post, err := feed.CreatePost(ctx, accountID, text, nil)
//	if errors.Is(err, service.ErrPostContentTooLong) {
//	    // 422
//	}
package service
