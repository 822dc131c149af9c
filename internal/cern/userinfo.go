package cern

// Profile is the presentable part of a user's resource.
type Profile struct {
	CommonName    string `json:"common_name"`
	DisplayName   string `json:"display_name"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Department    string `json:"department"`
	Building      string `json:"building"`
	HomeInstitute string `json:"home_institute"`
}

// UserInfo is a read-only projection of a resource.
type UserInfo struct {
	ExternalID string   `json:"external_id"`
	Email      string   `json:"email"`
	Groups     []string `json:"groups"`
	Profile    Profile  `json:"profile"`
}

// NewUserInfo projects res, filtering its groups with filter.
func NewUserInfo(res Resource, filter *GroupFilter) UserInfo {
	groups := res.Groups()
	if filter != nil {
		groups = filter.Filter(groups)
	}

	if groups == nil {
		groups = []string{}
	}

	return UserInfo{
		ExternalID: res.ExternalID(),
		Email:      res.Email(),
		Groups:     groups,
		Profile: Profile{
			CommonName:    res.First(FieldCommonName),
			DisplayName:   res.First(FieldDisplayName),
			FirstName:     res.First(FieldFirstname),
			LastName:      res.First(FieldLastname),
			Department:    res.First(FieldDepartment),
			Building:      res.First(FieldBuilding),
			HomeInstitute: res.First(FieldHomeInstitute),
		},
	}
}
