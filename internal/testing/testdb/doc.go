// Package testdb provides a live SurrealDB for repository tests.
//
// Each call to New gets its own namespace with the account and post schema
// applied, and the namespace is removed when the test ends:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    repo := repository.NewAccountRepository(tdb.DB)
//	}
//
// Tests skip when no server answers. Point them at one with TEST_DB_HOST,
// TEST_DB_PORT, TEST_DB_USER and TEST_DB_PASSWORD, for example after
// running: surreal start memory -A --user root --pass root
package testdb
