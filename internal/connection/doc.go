// Package connection derives and changes the relationship between two Gig-On
// users.
//
// A pair is always seen from a viewer's side. Resolve maps the single
// collaborator record for the pair onto one of four states:
//
//	NONE                 no record                Give Request
//	REQUESTED_BY_VIEWER  viewer sent a request    Requested (disabled)
//	REQUESTED_BY_OTHER   other sent a request     Accept Request
//	CONNECTED            request was accepted     Connected (disabled)
//
// PrimaryAction creates or accepts the record. RemoveAction deletes it and is
// offered only while a sent request is pending or the users are connected;
// a record that is already gone counts as removed. The Manager keeps no
// per-pair state, so callers re-resolve after a ConflictError.
//
// Network and Partition group a user's records into the tabs shown on the
// connections page.
package connection
