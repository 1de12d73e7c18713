// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud connects the bake tooling to AWS.
package cloud

import (
	"fmt"
	"os"
	"os/user"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/credentials/ec2rolecreds"
	"github.com/aws/aws-sdk-go/aws/ec2metadata"
	"github.com/aws/aws-sdk-go/aws/session"
)

// DefaultProfile is the shared credentials profile used when none is given.
const DefaultProfile = "swell"

// NewSession creates a session for region. Credentials come from profile in
// ~/.aws/credentials if that file exists, otherwise from the EC2 instance role.
func NewSession(region, profile string) (*session.Session, error) {
	if profile == "" {
		profile = DefaultProfile
	}

	usr, err := user.Current()
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("%s/.aws/credentials", usr.HomeDir)
	var creds *credentials.Credentials
	if _, statErr := os.Stat(path); statErr == nil {
		creds = credentials.NewSharedCredentials(path, profile)
	} else {
		metadataSession, err := session.NewSession(aws.NewConfig())
		if err != nil {
			return nil, err
		}
		creds = credentials.NewCredentials(&ec2rolecreds.EC2RoleProvider{Client: ec2metadata.New(metadataSession)})
	}

	return session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: creds,
	})
}
