// Package handler implements the HTTP endpoints of the campusfeed API.
//
// Handlers decode the request, call one service operation and write the
// result. Successful bodies are wrapped in DataResponse or
// CollectionResponse; failures are RFC 9457 problem documents produced by
// MapServiceError, so no handler chooses a status code for a service error
// on its own.
//
// # Endpoints
//
//	POST   /v1/auth/register          AuthHandler.Register
//	POST   /v1/auth/login             AuthHandler.Login
//	POST   /v1/auth/logout            AuthHandler.Logout
//	GET    /logout                    AuthHandler.LogoutRedirect
//	GET    /v1/profile                ProfileHandler.Get
//	PATCH  /v1/profile                ProfileHandler.Update
//	GET    /v1/posts                  PostHandler.List
//	POST   /v1/posts                  PostHandler.Create
//	DELETE /v1/posts/{id}             PostHandler.Delete
//	GET    /v1/admin/users            AdminUsersHandler.ListUsers
//	POST   /v1/admin/users/{id}/role  AdminUsersHandler.Promote
//	GET    /v1/chat                   ChatHandler.Serve (websocket)
//	GET    /health                    HealthHandler.Health
//
// Login failures always produce the same "authentication failed" answer.
package handler
