package domain

import "github.com/google/uuid"

// Text marshaling so typed IDs render as canonical UUID strings in JSON
// payloads and log fields instead of raw byte arrays.

func (id UserID) MarshalText() ([]byte, error)           { return []byte(id.String()), nil }
func (id DiscID) MarshalText() ([]byte, error)           { return []byte(id.String()), nil }
func (id RecoveryEventID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id MeetupProposalID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id DropOffID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id QRCodeID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id NotificationID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id *DiscID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = DiscID(u)
	return nil
}

func (id *RecoveryEventID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = RecoveryEventID(u)
	return nil
}

func (id *MeetupProposalID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = MeetupProposalID(u)
	return nil
}

func (id *DropOffID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = DropOffID(u)
	return nil
}

func (id *QRCodeID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = QRCodeID(u)
	return nil
}

func (id *NotificationID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = NotificationID(u)
	return nil
}
