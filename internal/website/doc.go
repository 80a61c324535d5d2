// Package website edits the marketing site sections: home, our story,
// portfolio and contact.
//
// A section loads once through the query cache under ["website", section],
// becomes a Draft, and is saved as a single multipart request. Each media
// slot resolves to exactly one wire action (see media.Slot.AppendTo):
//
//	hero           new file bytes
//	hero_url       keep the persisted URL
//	hero__remove   clear the slot
//
// Price ranges on the contact page are validated client-side and sent as a
// JSON array under priceRanges, newest first.
package website
