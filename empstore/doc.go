// Package empstore provides an append-only store of fixed-size employee
// records kept in a single flat file.
//
// # File Format
//
// The file is a sequence of RecordSize (108) byte records with no header,
// separators or trailing metadata. Each record is laid out as:
//
//	offset  size  field
//	0       4     id        int32, little-endian
//	4       50    name      UTF-8, zero padded (no NUL if all 50 bytes are used)
//	54      50    position  UTF-8, zero padded
//	104     4     salary    float32 (IEEE-754 bits), little-endian
//
// The number of records is the file size divided by RecordSize.
//
// # Basic Usage
//
//	s := empstore.New("employees.dat")
//	err := s.Add(&empstore.Employee{ID: 1, Name: "Ann", Position: "Clerk", Salary: 1000})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	n, err := s.ScanAll(func(e empstore.Employee) {
//	    fmt.Printf("%d %s\n", e.ID, e.Name)
//	})
//
//	e, err := s.FindByID(1)
//	if errors.Is(err, empstore.ErrNotFound) {
//	    // ...
//	}
//
// # Concurrency
//
// Every operation opens the file, does one pass and closes it. No handle
// is kept between calls and no locking is done, so the file must not be
// modified by another process while the store is in use.
package empstore
