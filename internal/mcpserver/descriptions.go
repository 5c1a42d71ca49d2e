package mcpserver

// Tool descriptions carry interpretation guidance for LLM clients.

func describeFindOrphans() string {
	return `Finds C functions that are defined but never called anywhere in the scanned .c and .h files.

USE WHEN:
- Cleaning up a C codebase after removing a feature
- Checking whether a helper can be deleted safely
- Reviewing a change for functions it left without callers
- Comparing a git revision against the working tree (set rev)
- Checking unsaved edits or a pasted snippet (pass sources instead of paths)

INTERPRETING RESULTS:
- orphans: functions with no call site in the scanned files, sorted by name
- Each orphan lists every definition; more than one means the name is defined in several files
- main and other externally invoked functions are orphans unless listed in entry_points
- Functions referenced only through function pointers (callbacks, tables) are reported as orphans; confirm before deleting
- Calls inside comments and string literals are ignored; code inside #if 0 regions is still scanned
- Prototypes never count as calls unless prototypes_as_calls is set, so a function that is only declared in a header is still an orphan
- warnings: files that were skipped (unreadable, binary, too large) and might hide callers

METRICS RETURNED:
- orphans: name and definitions (file, line)
- defined / called: every name with its locations (omitted when orphans_only is set)
- summary: files_scanned, files_skipped, defined_functions, called_functions, orphan_functions, entry_points_skipped
- fingerprint: stable hash of the orphan set, equal across runs with the same result`
}
