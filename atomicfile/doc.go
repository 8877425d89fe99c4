/*
Package atomicfile writes files so that readers see either the old content
or the complete new content, never a partial write.

Data goes to a temporary file in the destination directory which is synced
and renamed over the destination in Close(). If any Write(), Sync() or
Close() fails, the temporary file is removed and the destination is left
untouched.

Exports, backups and restores of the employee data file go through it:

	func writeSnapshot(path string, r io.Reader) error {
		f, err := atomicfile.New(path)
		if err != nil {
			return err
		}
		// calling Close() twice is a no-op
		defer f.RemoveIfNotClosed()

		if _, err = io.Copy(f, r); err != nil {
			return err
		}
		return f.Close()
	}

Some references:
  - https://www.slideshare.net/nan1nan1/eat-my-data
  - https://lwn.net/Articles/457667/
*/
package atomicfile
