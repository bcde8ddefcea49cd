// Package files persists the index of files received from the peer.
//
// The bytes themselves live in the downloads directory; a record maps the
// chat entry id to the saved path so /files can list them across runs.
//
//	repo := files.NewSQLiteRepository(db)
//	_ = repo.Save(ctx, &models.ReceivedFile{EntryID: id, LocalPath: p})
//	all, _ := repo.List(ctx)
package files
