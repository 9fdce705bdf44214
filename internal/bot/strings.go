package bot

// Commands and callback identifiers.
const (
	cmdStart      = "start"
	cmdStatus     = "status"
	cmdDeleteLast = "delete_last"
	cmdUpdateJSON = "update_json"

	cbMenuHint   = "menu_hint"
	cbTableHint  = "table_hint"
	cbDeleteYes  = "delete_yes"
	cbDeleteNo   = "delete_no"
	cbReplaceYes = "replace_table_yes"
	cbReplaceNo  = "replace_table_no"
)

// User-facing message texts.
const (
	btnUploadMenu  = "Upload the menu"
	btnUploadTable = "Upload a table"
	btnCheckMenu   = "Check the menu"
	btnCheckTable  = "Check the table"
	btnReplace     = "Replace"
	btnCancel      = "Cancel"
	btnYes         = "Yes"
	btnNo          = "No"

	msgGreeting = "Hi! I can publish the daily menu and the food tables to the website.\n\n" +
		"Press _\"" + btnUploadMenu + "\"_ and attach a file to publish the menu.\n\n" +
		"Press _\"" + btnUploadTable + "\"_ and attach a file to publish a table."
	msgGreetingDenied = "Looks like you are not allowed to use this bot."
	msgNoPermissions  = "You do not have permission to run this command."

	msgMenuHint = "Now send me the menu file. It can be an image or a PDF; " +
		"a photo must be attached uncompressed, as a file."
	msgTableHint = "Now send me the table file. It must be an .xlsx document."

	msgUploadStarted        = "Uploading to the website..."
	msgMenuUploaded         = "The menu has been published"
	msgTableUploaded        = "The table has been published"
	msgMenuAlreadyUploaded  = "This menu is already published"
	msgTableAlreadyUploaded = "This table is already published. Replace it?"
	msgWrongFileType        = "This file format is not supported."
	msgNothingToConfirm     = "Nothing to confirm. Send the file again."

	msgStatusMenuFailed  = "Could not fetch the last published menu"
	msgStatusTableFailed = "Could not fetch the last published table"

	msgDeleteNotFound     = "There is no table file to delete"
	msgIndexRefreshed     = "The table index has been refreshed"
	msgIndexRefreshFailed = "Could not refresh the table index"

	fmtStatusMenu     = "Last published menu:\n\nName: %s\n\nUploaded: %s"
	fmtStatusTable    = "Last published table:\n\nName: %s\n\nUploaded: %s"
	fmtDeleteQuestion = "Delete the file %q?"
	fmtDeleteDone     = "File %s has been deleted"
	fmtDeleteFailed   = "Could not delete the file: %s"

	unknownValue = "unknown"
)
