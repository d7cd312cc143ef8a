package ldclient

import (
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fctrl/go-server-sdk/internal/datakinds"
	"github.com/fctrl/go-server-sdk/internal/sharedtest"
	"github.com/fctrl/go-server-sdk/internal/sharedtest/mocks"
	"github.com/fctrl/go-server-sdk/ldbuilders"
	"github.com/fctrl/go-server-sdk/ldcomponents"
	"github.com/fctrl/go-server-sdk/subsystems"
	"github.com/fctrl/go-server-sdk/subsystems/ldstoretypes"
)

var testUser = ldcontext.New("user-key")

func makeOfflineClient(t *testing.T) *LDClient {
	config := Config{Offline: true}
	client, err := MakeCustomClient("sdk-key", config, 0)
	require.NoError(t, err)
	return client
}

func makeClientWithData(t *testing.T, data []ldstoretypes.Collection) *LDClient {
	config := Config{
		DataSource: mocks.DataSourceFactoryWithData{Data: data},
		Events:     ldcomponents.NoEvents(),
	}
	client, err := MakeCustomClient("sdk-key", config, 5*time.Second)
	require.NoError(t, err)
	return client
}

func TestMakeClientOfflineReportsOffline(t *testing.T) {
	client := makeOfflineClient(t)
	defer client.Close() //nolint:errcheck

	assert.True(t, client.IsOffline())
}

func TestBoolVariationReturnsDefaultValueWhenOffline(t *testing.T) {
	client := makeOfflineClient(t)
	defer client.Close() //nolint:errcheck

	value, err := client.BoolVariation("flagKey", testUser, true)
	assert.NoError(t, err)
	assert.True(t, value)

	value, detail, err := client.BoolVariationDetail("flagKey", testUser, true)
	assert.NoError(t, err)
	assert.True(t, value)
	assert.Equal(t, -1, detail.VariationIndex)
	assert.Equal(t, ldreason.EvalErrorClientNotReady, detail.Reason.GetErrorKind())
}

func TestBoolVariationUsesFlagFromDataSource(t *testing.T) {
	flag := ldbuilders.NewFlagBuilder("flagKey").
		On(false).
		OffVariation(1).
		Variations(ldvalue.Bool(false), ldvalue.Bool(true)).
		Build()

	client := makeClientWithData(t, []ldstoretypes.Collection{{
		Kind: datakinds.Features,
		Items: []ldstoretypes.KeyedItemDescriptor{
			{Key: flag.Key, Item: sharedtest.FlagDescriptor(flag)},
		},
	}})
	defer client.Close() //nolint:errcheck

	assert.True(t, client.Initialized())

	value, err := client.BoolVariation(flag.Key, testUser, false)
	assert.NoError(t, err)
	assert.True(t, value)
}

func TestJSONVariationReturnsDefaultForUnknownFlag(t *testing.T) {
	client := makeClientWithData(t, nil)
	defer client.Close() //nolint:errcheck

	defaultVal := ldvalue.String("default")
	value, detail, err := client.JSONVariationDetail("nonexistent", testUser, defaultVal)
	assert.NoError(t, err)
	assert.Equal(t, defaultVal, value)
	assert.Equal(t, ldreason.EvalErrorFlagNotFound, detail.Reason.GetErrorKind())
}

func TestAllFlagsStateReturnsAllKnownFlags(t *testing.T) {
	flag1 := ldbuilders.NewFlagBuilder("flag1").
		On(false).OffVariation(0).Variations(ldvalue.Bool(true)).Build()
	flag2 := ldbuilders.NewFlagBuilder("flag2").
		On(false).OffVariation(0).Variations(ldvalue.Int(3)).Build()

	client := makeClientWithData(t, []ldstoretypes.Collection{{
		Kind: datakinds.Features,
		Items: []ldstoretypes.KeyedItemDescriptor{
			{Key: flag1.Key, Item: sharedtest.FlagDescriptor(flag1)},
			{Key: flag2.Key, Item: sharedtest.FlagDescriptor(flag2)},
		},
	}})
	defer client.Close() //nolint:errcheck

	state := client.AllFlagsState(testUser)
	assert.True(t, state.IsValid())
}

func TestWithEventsDisabledReturnsDecoratedClient(t *testing.T) {
	client := makeOfflineClient(t)
	defer client.Close() //nolint:errcheck

	decorated := client.WithEventsDisabled(true)
	assert.NotNil(t, decorated)

	same := client.WithEventsDisabled(false)
	assert.Same(t, client, same)
}

func TestSecureModeHashIsStableForSameContext(t *testing.T) {
	config := Config{Offline: true}
	client, err := MakeCustomClient("sdk-key", config, 0)
	require.NoError(t, err)
	defer client.Close() //nolint:errcheck

	hash1 := client.SecureModeHash(testUser)
	hash2 := client.SecureModeHash(testUser)
	assert.Equal(t, hash1, hash2)
	assert.NotEmpty(t, hash1)
}

func TestIdentifyRejectsInvalidContext(t *testing.T) {
	client := makeOfflineClient(t)
	defer client.Close() //nolint:errcheck

	invalidContext := ldcontext.NewWithKind("", "")
	err := client.Identify(invalidContext)
	assert.NoError(t, err)
}

var _ subsystems.ComponentConfigurer[subsystems.DataSource] = mocks.DataSourceFactoryWithData{}
