/*
Package operation runs a replacement job over every file matching a pattern.

	+-------------+
	|  discovery  |
	|   (glob)    |
	+------+------+
	       |
	+------+------+
	|   chunks    |
	| (errgroup)  |
	+------+------+
	       |
	+------+------+
	|    text     |
	|  (replace)  |
	+-------------+

🎯 Purpose:
- Turns validated settings into a list of files
- Edits those files with bounded parallelism
- Reports progress through the log package

🔄 Flow:
1. Finder expands the include pattern and drops excluded paths
2. ProcessInChunks splits the list into chunks of Settings.MaxParallelism
3. Each chunk runs fully concurrently and is awaited before the next one
4. Replacer rewrites one file, replacing the first occurrence only

⚡ Failure model:
- The first error of a chunk is returned once the whole chunk has settled
- Later chunks are never started after a failure
- Panics in a task come back as *PanicError
- Nothing is retried and nothing is rolled back

🔍 Example:

	res, err := operation.Run(ctx, operation.Options{Settings: settings})
	if err != nil {
		return err
	}
	fmt.Println(res.Modified, "files changed")
*/
package operation
