// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package db

import (
	"errors"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/guregu/dynamo"
)

type DynamoDBIndex struct {
	svc        *dynamodb.DynamoDB
	db         *dynamo.DB
	bakesTable dynamo.Table
}

func NewDynamoDBIndex(session *session.Session, stage string) *DynamoDBIndex {
	ddb := &DynamoDBIndex{svc: dynamodb.New(session)}
	ddb.db = dynamo.NewFromIface(ddb.svc)
	ddb.bakesTable = ddb.db.Table("swell-" + stage + "-bakes")
	return ddb
}

func (ddb *DynamoDBIndex) UpdateBake(bake Bake) error {
	err := ddb.bakesTable.Put(bake).If("attribute_not_exists(updated) OR updated <= ?", bake.Updated).Run()
	if err != nil {
		var conditionFailed *dynamodb.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return nil
		}
	}
	return err
}

func (ddb *DynamoDBIndex) ReadBake(name string) (bake Bake, err error) {
	err = ddb.bakesTable.Get("name", name).One(&bake)
	if errors.Is(err, dynamo.ErrNotFound) {
		err = ErrNotFound
	}
	return
}

func (ddb *DynamoDBIndex) ReadBakes() (bakes []Bake, err error) {
	query := ddb.bakesTable.Scan().Iter()

	for {
		var bake Bake
		ok := query.Next(&bake)
		if !ok {
			err = query.Err()
			return
		}
		bakes = append(bakes, bake)
	}
}
