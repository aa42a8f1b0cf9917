// Package repository implements account and post storage.
//
// Two backends satisfy the same method sets:
//
//   - AccountRepository and PostRepository run SurrealQL through a
//     database.Database
//   - PostgresAccountRepository and PostgresPostRepository run SQL through a
//     database.DBTX backed by pgx
//
// Open picks one from configuration, brings its schema up to date and
// returns a Backend holding both repositories.
//
// # Conventions
//
//   - GetByID, GetByEmail and UpdateProfile return nil, nil for a missing record
//   - SetRole returns database.ErrNotFound for a missing account
//   - Create returns database.ErrDuplicate when the email is taken
//   - Delete reports whether a row was removed
//   - ListRecent orders by creation time, newest first, and joins the author
//
// # Example Usage
//
//	backend, err := repository.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer backend.Close()
//
//	acc, err := backend.Accounts.GetByEmail(ctx, email)
//	if err != nil {
//	    return err
//	}
//	if acc == nil {
//	    // unknown email
//	}
package repository
